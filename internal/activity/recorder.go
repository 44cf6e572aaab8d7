package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/household-ledger/internal/core/events"
)

// Recorder writes every ledger event into the activity log.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
	}
}

func (r *Recorder) HandleEvent(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType(), err)
	}

	entry := &Entry{
		ID:          event.EventID(),
		HouseholdID: event.Household(),
		Type:        event.EventType(),
		Payload:     payload,
		OccurredAt:  event.OccurredAt(),
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append activity %s: %w", entry.ID, err)
	}

	r.logger.Info("household activity",
		"household_id", entry.HouseholdID,
		"event_type", entry.Type,
		"event_id", entry.ID)
	return nil
}

func (r *Recorder) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, eventType := range events.AllTypes {
		eventBus.Subscribe(eventType, r.HandleEvent)
	}

	r.logger.Info("activity event handlers registered", "handlers", events.AllTypes)
}
