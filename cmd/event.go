package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/frahmantamala/household-ledger/internal/core/events"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect ledger event types and publish test events into a household's activity log`,
}

var listEventTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the ledger event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AllTypes {
			fmt.Println(t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus; the activity recorder stores it for the household`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventData      string
	eventHousehold int64
)

func publishTestEvent(eventType string) error {
	if !slices.Contains(events.AllTypes, eventType) {
		return fmt.Errorf("unknown event type %q", eventType)
	}
	if eventHousehold <= 0 {
		return fmt.Errorf("--household is required")
	}

	ledger, err := initializeApp()
	if err != nil {
		return err
	}
	defer ledger.Close()

	testEvent := events.BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		HouseholdID: eventHousehold,
		Timestamp:   time.Now().UTC(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	ledger.Logger.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID, "household_id", eventHousehold)
	if err := ledger.Bus.Publish(context.Background(), testEvent); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	ledger.Bus.Wait()
	ledger.Logger.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().Int64Var(&eventHousehold, "household", 0, "household that owns the event")

	eventCmd.AddCommand(listEventTypesCmd)
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
