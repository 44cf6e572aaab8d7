package household

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/transport"
)

type MembershipChecker interface {
	IsMember(ctx context.Context, householdID, userID int64) (bool, error)
}

// MembershipAuthorization guards /households/{householdID} routes.
type MembershipAuthorization struct {
	*transport.BaseHandler
	checker MembershipChecker
}

func NewMembershipAuthorization(checker MembershipChecker, logger *slog.Logger) *MembershipAuthorization {
	return &MembershipAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
	}
}

// RequireMember rejects callers who do not belong to the household in the URL.
func (ma *MembershipAuthorization) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			ma.Logger.Warn("authorization check failed: user not found in context")
			ma.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		householdID, err := strconv.ParseInt(chi.URLParam(r, "householdID"), 10, 64)
		if err != nil || householdID <= 0 {
			ma.WriteError(w, http.StatusBadRequest, "invalid householdID")
			return
		}

		isMember, err := ma.checker.IsMember(r.Context(), householdID, user.ID)
		if err != nil {
			if errors.Is(err, internal.ErrHouseholdNotFound) {
				ma.HandleServiceError(w, err)
				return
			}
			ma.Logger.ErrorContext(r.Context(), "membership check failed", "error", err, "user_id", user.ID, "household_id", householdID)
			ma.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !isMember {
			ma.Logger.WarnContext(r.Context(), "access denied: not a household member", "user_id", user.ID, "household_id", householdID)
			ma.HandleServiceError(w, internal.ErrUnauthorizedAccess)
			return
		}

		next.ServeHTTP(w, r)
	})
}
