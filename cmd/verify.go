package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyHousehold int64

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that balance sheets net to zero",
	Long:  `Recompute the net position of one household, or of every household, and fail when any is not zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := initializeApp()
		if err != nil {
			return err
		}
		defer ledger.Close()

		ctx := context.Background()
		if verifyHousehold == 0 {
			return ledger.VerifyLedger(ctx)
		}

		result, err := ledger.Balances.Verify(ctx, verifyHousehold)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "household %d: members=%d net_cents=%d balanced=%t\n",
			result.HouseholdID, result.Members, result.NetCents, result.Balanced)
		if !result.Balanced {
			return fmt.Errorf("household %d is unbalanced", result.HouseholdID)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().Int64Var(&verifyHousehold, "household", 0, "household id to verify (default: all)")
}
