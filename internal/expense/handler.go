package expense

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/transport"
)

type ServiceAPI interface {
	CreateExpense(ctx context.Context, householdID, creatorID int64, dto CreateExpenseDTO) (*Expense, error)
	GetExpense(ctx context.Context, id, userID int64) (*Expense, error)
	ListHouseholdExpenses(ctx context.Context, householdID int64, filter ListFilter) ([]*Expense, error)
	ApproveExpense(ctx context.Context, id, memberID int64) (*Expense, error)
	RejectExpense(ctx context.Context, id, memberID int64, dto RejectExpenseDTO) (*Expense, error)
	EditExpense(ctx context.Context, id, userID int64, dto UpdateExpenseDTO) (*Expense, error)
	DeleteExpense(ctx context.Context, id, userID int64) error
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

type DeltaView struct {
	MemberID int64       `json:"member_id"`
	Sum      money.Money `json:"sum"`
	Sign     money.Sign  `json:"sign"`
}

// ExpenseResponse adds the derived balance deltas to the stored expense.
type ExpenseResponse struct {
	*Expense
	Deltas []DeltaView `json:"deltas"`
}

func ToResponse(e *Expense) ExpenseResponse {
	deltas := e.Deltas()
	views := make([]DeltaView, len(deltas))
	for i, d := range deltas {
		views[i] = DeltaView{MemberID: d.MemberID, Sum: d.Sum, Sign: d.Sign}
	}
	return ExpenseResponse{Expense: e, Deltas: views}
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	var dto CreateExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.CreateExpense(r.Context(), householdID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, ToResponse(e))
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	limit, offset := h.Pagination(r)
	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	expenses, err := h.Service.ListHouseholdExpenses(r.Context(), householdID, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = ToResponse(e)
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": resp,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	e, err := h.Service.GetExpense(r.Context(), id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToResponse(e))
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.EditExpense(r.Context(), id, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToResponse(e))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteExpense(r.Context(), id, user.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	e, err := h.Service.ApproveExpense(r.Context(), id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToResponse(e))
}

func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	var dto RejectExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.RejectExpense(r.Context(), id, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToResponse(e))
}
