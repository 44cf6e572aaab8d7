// Package app wires repositories, services, handlers and the event bus into
// a runnable ledger.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/activity"
	activityPostgres "github.com/frahmantamala/household-ledger/internal/activity/postgres"
	"github.com/frahmantamala/household-ledger/internal/auth"
	authPostgres "github.com/frahmantamala/household-ledger/internal/auth/postgres"
	"github.com/frahmantamala/household-ledger/internal/balance"
	balancePostgres "github.com/frahmantamala/household-ledger/internal/balance/postgres"
	"github.com/frahmantamala/household-ledger/internal/category"
	categoryPostgres "github.com/frahmantamala/household-ledger/internal/category/postgres"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	"github.com/frahmantamala/household-ledger/internal/core/events"
	"github.com/frahmantamala/household-ledger/internal/expense"
	expensePostgres "github.com/frahmantamala/household-ledger/internal/expense/postgres"
	"github.com/frahmantamala/household-ledger/internal/household"
	householdPostgres "github.com/frahmantamala/household-ledger/internal/household/postgres"
	"github.com/frahmantamala/household-ledger/internal/payment"
	paymentPostgres "github.com/frahmantamala/household-ledger/internal/payment/postgres"
	"github.com/frahmantamala/household-ledger/internal/transport/middleware"
	"github.com/frahmantamala/household-ledger/internal/transport/rest"
)

type App struct {
	Config *internal.Config
	DB     *database.DB
	Bus    *events.EventBus
	Logger *slog.Logger

	Auth       *auth.Service
	Households *household.Service
	Balances   *balance.Service
	Categories *category.Service
	Expenses   *expense.Service
	Payments   *payment.Service
	Activity   *activity.Service
}

// New builds every service on top of an open database.
func New(cfg *internal.Config, db *database.DB, logger *slog.Logger) *App {
	tx := database.NewTransactor(db.Gorm)
	bus := events.NewEventBus(logger)

	activityRepo := activityPostgres.NewActivityRepository(db.Gorm)
	activity.NewRecorder(activityRepo, logger).RegisterEventHandlers(bus)

	balances := balance.NewService(
		balancePostgres.NewBalanceRepository(db.Gorm),
		balancePostgres.NewReader(db.SQL),
		tx,
		logger,
	)
	households := household.NewService(householdPostgres.NewHouseholdRepository(db.Gorm), balances, tx, bus, logger)
	categories := category.NewService(categoryPostgres.NewCategoryRepository(db.Gorm), logger)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)

	return &App{
		Config:     cfg,
		DB:         db,
		Bus:        bus,
		Logger:     logger,
		Auth:       auth.NewService(authPostgres.NewUserRepository(db.Gorm), tokens, cfg.Security.BCryptCost, logger),
		Households: households,
		Balances:   balances,
		Categories: categories,
		Expenses: expense.NewService(expensePostgres.NewExpenseRepository(db.Gorm), households, balances, tx, bus, logger).
			WithCategories(categories),
		Payments:   payment.NewService(paymentPostgres.NewPaymentRepository(db.Gorm), households, balances, tx, bus, logger),
		Activity:   activity.NewService(activityRepo, logger),
	}
}

// Router mounts the HTTP API.
func (a *App) Router() (http.Handler, error) {
	opts := rest.RouterOptions{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		OpenAPIPath:    a.Config.Server.OpenAPISpec,
	}
	if a.Config.Server.ValidateRequests {
		doc, err := middleware.LoadOpenAPI(a.Config.Server.OpenAPISpec)
		if err != nil {
			return nil, err
		}
		validator, err := middleware.OpenAPIValidator(doc, a.Logger)
		if err != nil {
			return nil, err
		}
		opts.Validator = validator
	}

	handlers := rest.Handlers{
		Health:     rest.NewHealthHandler(a.DB.SQL, a.Config.Database.Driver),
		Auth:       auth.NewHandler(a.Auth, a.Logger),
		Household:  household.NewHandler(a.Households, a.Logger),
		Membership: household.NewMembershipAuthorization(a.Households, a.Logger),
		Balance:    balance.NewHandler(a.Balances, a.Logger),
		Category:   category.NewHandler(a.Categories, a.Logger),
		Expense:    expense.NewHandler(a.Expenses, a.Logger),
		Payment:    payment.NewHandler(a.Payments, a.Logger),
		Activity:   activity.NewHandler(a.Activity, a.Logger),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, opts, a.Logger)
	return router, nil
}

// VerifyLedger logs and reports every household whose sheet does not net to zero.
func (a *App) VerifyLedger(ctx context.Context) error {
	results, err := a.Balances.VerifyAll(ctx)
	if err != nil {
		return err
	}

	var unbalanced []int64
	for _, r := range results {
		if !r.Balanced {
			unbalanced = append(unbalanced, r.HouseholdID)
		}
	}
	a.Logger.Info("ledger verified", "households", len(results), "unbalanced", len(unbalanced))
	if len(unbalanced) > 0 {
		return internal.ErrUnbalancedDelta.WithDetails(map[string]interface{}{"households": unbalanced})
	}
	return nil
}

// Close drains in-flight event handlers, bounded by the configured timeout,
// then closes the database.
func (a *App) Close() error {
	drained := make(chan struct{})
	go func() {
		a.Bus.Wait()
		close(drained)
	}()

	timeout := a.Config.Ledger.EventDrainTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case <-drained:
	case <-time.After(timeout):
		a.Logger.Warn("event handlers still running at shutdown", "timeout", timeout)
	}

	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
