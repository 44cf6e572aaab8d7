package activity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/household-ledger/internal/transport"
)

type ServiceAPI interface {
	ListActivity(ctx context.Context, householdID int64, limit, offset int) ([]*Entry, error)
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

func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	limit, offset := h.Pagination(r)
	entries, err := h.Service.ListActivity(r.Context(), householdID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"activity": entries,
		"limit":    limit,
		"offset":   offset,
	})
}
