package balance

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/transport"
)

type ServiceAPI interface {
	GetBalances(ctx context.Context, householdID int64) ([]Row, error)
	Verify(ctx context.Context, householdID int64) (VerifyResult, error)
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

type BalanceView struct {
	MemberID int64  `json:"member_id"`
	Sum      string `json:"sum"`
	Sign     string `json:"sign"`
	// Display is the signed form, e.g. "-12.50".
	Display string `json:"display"`
}

type SheetResponse struct {
	HouseholdID int64         `json:"household_id"`
	Balances    []BalanceView `json:"balances"`
}

func ToView(r Row) BalanceView {
	display := r.Sum.String()
	if r.Sign == money.SignNegative && !r.IsZero() {
		display = "-" + display
	} else {
		display = "+" + display
	}
	return BalanceView{
		MemberID: r.MemberID,
		Sum:      r.Sum.String(),
		Sign:     string(r.Sign),
		Display:  display,
	}
}

func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	rows, err := h.Service.GetBalances(r.Context(), householdID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := SheetResponse{HouseholdID: householdID, Balances: make([]BalanceView, len(rows))}
	for i, row := range rows {
		resp.Balances[i] = ToView(row)
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	result, err := h.Service.Verify(r.Context(), householdID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
