package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	householdDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/household"
	userDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/user"
	"github.com/frahmantamala/household-ledger/internal/household"
)

const expensePendingApproval = "pending_approval"

// HouseholdRepository implements household.Repository using GORM
type HouseholdRepository struct {
	db *gorm.DB
}

func NewHouseholdRepository(db *gorm.DB) *HouseholdRepository {
	return &HouseholdRepository{db: db}
}

func (r *HouseholdRepository) Create(ctx context.Context, h *household.Household) error {
	dm := h.ToDataModel()
	if err := database.Conn(ctx, r.db).Create(dm).Error; err != nil {
		return err
	}
	h.ID = dm.ID
	h.CreatedAt = dm.CreatedAt
	return nil
}

func (r *HouseholdRepository) GetByID(ctx context.Context, id int64) (*household.Household, error) {
	var dm householdDatamodel.Household
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrHouseholdNotFound
		}
		return nil, err
	}
	return household.FromDataModel(&dm), nil
}

func (r *HouseholdRepository) ListForUser(ctx context.Context, userID int64) ([]*household.Household, error) {
	var dms []householdDatamodel.Household
	err := database.Conn(ctx, r.db).
		Joins("JOIN household_members hm ON hm.household_id = households.id").
		Where("hm.user_id = ?", userID).
		Order("households.id ASC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	out := make([]*household.Household, len(dms))
	for i := range dms {
		out[i] = household.FromDataModel(&dms[i])
	}
	return out, nil
}

func (r *HouseholdRepository) AddMember(ctx context.Context, householdID, userID int64, role string) error {
	return database.Conn(ctx, r.db).Create(&householdDatamodel.Member{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        role,
	}).Error
}

func (r *HouseholdRepository) RemoveMember(ctx context.Context, householdID, userID int64) error {
	return database.Conn(ctx, r.db).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Delete(&householdDatamodel.Member{}).Error
}

type memberRow struct {
	HouseholdID int64
	UserID      int64
	Name        string
	Email       string
	Role        string
	JoinedAt    time.Time
}

func (m memberRow) toDomain() *household.Member {
	return &household.Member{
		HouseholdID: m.HouseholdID,
		UserID:      m.UserID,
		Name:        m.Name,
		Email:       m.Email,
		Role:        m.Role,
		JoinedAt:    m.JoinedAt,
	}
}

func (r *HouseholdRepository) members(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Table("household_members hm").
		Select("hm.household_id, hm.user_id, u.name, u.email, hm.role, hm.joined_at").
		Joins("JOIN users u ON u.id = hm.user_id")
}

func (r *HouseholdRepository) GetMember(ctx context.Context, householdID, userID int64) (*household.Member, error) {
	var rows []memberRow
	err := r.members(ctx).
		Where("hm.household_id = ? AND hm.user_id = ?", householdID, userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: user %d in household %d", internal.ErrMemberNotFound, userID, householdID)
	}
	return rows[0].toDomain(), nil
}

func (r *HouseholdRepository) ListMembers(ctx context.Context, householdID int64) ([]*household.Member, error) {
	var rows []memberRow
	err := r.members(ctx).
		Where("hm.household_id = ?", householdID).
		Order("hm.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*household.Member, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *HouseholdRepository) FindUserIDByEmail(ctx context.Context, email string) (int64, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).
		Select("id").
		Where("email = ? AND is_active = ?", email, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.NewNotFoundError("user not found", internal.ErrCodeMemberNotFound)
		}
		return 0, err
	}
	return u.ID, nil
}

func (r *HouseholdRepository) HasOpenExpenses(ctx context.Context, householdID, userID int64) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Table("expense_approvals ea").
		Joins("JOIN expenses e ON e.id = ea.expense_id").
		Where("e.household_id = ? AND e.status = ? AND ea.member_id = ?", householdID, expensePendingApproval, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
