package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/household-ledger/internal/transport"
)

type ServiceAPI interface {
	CreatePayment(ctx context.Context, householdID, payerID int64, dto CreatePaymentDTO) (*Payment, error)
	AcceptPayment(ctx context.Context, id, actorID int64) (*Payment, error)
	RejectPayment(ctx context.Context, id, actorID int64) (*Payment, error)
	ListHouseholdPayments(ctx context.Context, householdID int64, filter ListFilter) ([]*Payment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CreatePayment handles POST /api/v1/households/{householdID}/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	var dto CreatePaymentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.CreatePayment(r.Context(), householdID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	limit, offset := h.Pagination(r)
	payments, err := h.Service.ListHouseholdPayments(r.Context(), householdID, ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

// AcceptPayment handles PATCH /api/v1/payments/{id}/accept
func (h *Handler) AcceptPayment(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.AcceptPayment)
}

// RejectPayment handles PATCH /api/v1/payments/{id}/reject
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.RejectPayment)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actorID int64) (*Payment, error)) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := fn(r.Context(), id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}
