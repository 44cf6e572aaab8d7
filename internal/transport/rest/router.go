package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/household-ledger/internal/activity"
	"github.com/frahmantamala/household-ledger/internal/auth"
	"github.com/frahmantamala/household-ledger/internal/balance"
	"github.com/frahmantamala/household-ledger/internal/category"
	"github.com/frahmantamala/household-ledger/internal/expense"
	"github.com/frahmantamala/household-ledger/internal/household"
	"github.com/frahmantamala/household-ledger/internal/payment"
	"github.com/frahmantamala/household-ledger/internal/transport/middleware"
	"github.com/frahmantamala/household-ledger/internal/transport/swagger"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	Household  *household.Handler
	Membership *household.MembershipAuthorization
	Balance    *balance.Handler
	Category   *category.Handler
	Expense    *expense.Handler
	Payment    *payment.Handler
	Activity   *activity.Handler
}

type RouterOptions struct {
	AllowedOrigins string
	OpenAPIPath    string
	// Validator checks requests against the contract; nil disables it.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts RouterOptions, logger *slog.Logger) {
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if opts.OpenAPIPath != "" {
		router.Get(swagger.SpecURL, swagger.SpecHandler(opts.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator)
		}

		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/register", h.Auth.Register)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.Auth.Me)
			pr.Get("/categories", h.Category.GetCategories)

			pr.Route("/households", func(hr chi.Router) {
				hr.Post("/", h.Household.CreateHousehold)
				hr.Get("/", h.Household.ListHouseholds)

				hr.Route("/{householdID}", func(mr chi.Router) {
					mr.Use(h.Membership.RequireMember)

					mr.Get("/members", h.Household.ListMembers)
					mr.Post("/members", h.Household.AddMember)
					mr.Delete("/members/{userID}", h.Household.RemoveMember)

					mr.Get("/balances", h.Balance.GetBalances)
					mr.Get("/balances/verify", h.Balance.Verify)

					mr.Post("/expenses", h.Expense.CreateExpense)
					mr.Get("/expenses", h.Expense.ListExpenses)

					mr.Post("/payments", h.Payment.CreatePayment)
					mr.Get("/payments", h.Payment.ListPayments)

					mr.Get("/activity", h.Activity.ListActivity)
				})
			})

			// Entry routes check membership in the service, the household id
			// comes from the stored entry.
			pr.Route("/expenses/{id}", func(er chi.Router) {
				er.Get("/", h.Expense.GetExpense)
				er.Put("/", h.Expense.UpdateExpense)
				er.Delete("/", h.Expense.DeleteExpense)
				er.Patch("/approve", h.Expense.ApproveExpense)
				er.Patch("/reject", h.Expense.RejectExpense)
			})

			pr.Route("/payments/{id}", func(pmr chi.Router) {
				pmr.Patch("/accept", h.Payment.AcceptPayment)
				pmr.Patch("/reject", h.Payment.RejectPayment)
			})
		})
	})
}
