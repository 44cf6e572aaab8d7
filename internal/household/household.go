package household

import (
	"time"

	householdDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/household"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Household struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Member struct {
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

func FromDataModel(dm *householdDatamodel.Household) *Household {
	return &Household{
		ID:        dm.ID,
		Name:      dm.Name,
		CreatedBy: dm.CreatedBy,
		CreatedAt: dm.CreatedAt,
	}
}

func (h *Household) ToDataModel() *householdDatamodel.Household {
	return &householdDatamodel.Household{
		ID:        h.ID,
		Name:      h.Name,
		CreatedBy: h.CreatedBy,
		CreatedAt: h.CreatedAt,
	}
}
