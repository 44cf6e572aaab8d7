package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/auth"
	"github.com/frahmantamala/household-ledger/internal/category"
	"github.com/frahmantamala/household-ledger/internal/household"
	"github.com/spf13/cobra"
)

const seedPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with demo users and a shared household for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ledger, err := initializeApp()
		if err != nil {
			log.Fatalf("failed to init: %v", err)
		}
		defer ledger.Close()

		ctx := context.Background()
		db := ledger.DB.Gorm

		if clearData {
			for _, table := range []string{
				"activity_log", "payments", "expense_approvals", "expense_shares",
				"expenses", "balances", "household_members", "households", "users",
			} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		people := []auth.RegisterDTO{
			{Email: "alice@mail.com", Name: "Alice", Password: seedPassword},
			{Email: "bob@mail.com", Name: "Bob", Password: seedPassword},
			{Email: "carol@mail.com", Name: "Carol", Password: seedPassword},
		}

		ids := make([]int64, len(people))
		for i, p := range people {
			account, err := ledger.Auth.Register(ctx, p)
			switch {
			case err == nil:
				ids[i] = account.ID
				fmt.Println("Seeded user:", p.Email)
			case errors.Is(err, internal.ErrEmailTaken):
				if err := db.Raw("SELECT id FROM users WHERE email = ?", p.Email).Row().Scan(&ids[i]); err != nil {
					log.Fatalf("failed to lookup user %s: %v", p.Email, err)
				}
				fmt.Println("user already exists:", p.Email)
			default:
				log.Fatalf("failed to insert user %s: %v", p.Email, err)
			}
		}

		for _, c := range []category.CreateCategoryDTO{
			{Name: "groceries", Description: "food and household supplies"},
			{Name: "rent", Description: "rent and mortgage"},
			{Name: "utilities", Description: "power, water, internet"},
			{Name: "dining", Description: "eating out"},
			{Name: "transport", Description: "fuel, transit, rides"},
			{Name: "other", Description: "anything else"},
		} {
			if _, err := ledger.Categories.Create(ctx, c); err != nil && !errors.Is(err, internal.ErrCategoryExists) {
				log.Fatalf("failed to insert expense category %s: %v", c.Name, err)
			}
		}
		fmt.Println("Expense categories seeded successfully")

		existing, err := ledger.Households.ListHouseholds(ctx, ids[0])
		if err != nil {
			log.Fatalf("failed to list households: %v", err)
		}
		if len(existing) > 0 {
			fmt.Println("demo household already exists; nothing else to seed")
			return
		}

		hh, err := ledger.Households.CreateHousehold(ctx, ids[0], household.CreateHouseholdDTO{Name: "Demo household"})
		if err != nil {
			log.Fatalf("failed to create household: %v", err)
		}
		for _, p := range people[1:] {
			if _, err := ledger.Households.AddMember(ctx, hh.ID, ids[0], household.AddMemberDTO{Email: p.Email}); err != nil {
				log.Fatalf("failed to add %s: %v", p.Email, err)
			}
		}

		fmt.Printf("Seeded household %d with %d members (password %q)\n", hh.ID, len(people), seedPassword)
	},
}
