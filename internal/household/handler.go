package household

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/household-ledger/internal/transport"
)

type ServiceAPI interface {
	CreateHousehold(ctx context.Context, creatorID int64, dto CreateHouseholdDTO) (*Household, error)
	ListHouseholds(ctx context.Context, userID int64) ([]*Household, error)
	AddMember(ctx context.Context, householdID, actorID int64, dto AddMemberDTO) (*Member, error)
	RemoveMember(ctx context.Context, householdID, actorID, userID int64) error
	ListMembers(ctx context.Context, householdID int64) ([]*Member, error)
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

func (h *Handler) CreateHousehold(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateHouseholdDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	hh, err := h.Service.CreateHousehold(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, hh)
}

func (h *Handler) ListHouseholds(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	households, err := h.Service.ListHouseholds(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"households": households})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	members, err := h.Service.ListMembers(r.Context(), householdID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}

	var dto AddMemberDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	member, err := h.Service.AddMember(r.Context(), householdID, user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	householdID, ok := h.IDParam(w, r, "householdID")
	if !ok {
		return
	}
	userID, ok := h.IDParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.Service.RemoveMember(r.Context(), householdID, user.ID, userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
