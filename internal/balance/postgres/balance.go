package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/balance"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	balanceDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/balance"
	householdDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/household"
	"github.com/frahmantamala/household-ledger/internal/core/money"
)

// BalanceRepository implements balance.Repository using GORM
type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// LockHousehold takes a row lock on the household. SQLite has no row locks and
// relies on its single writer instead.
func (r *BalanceRepository) LockHousehold(ctx context.Context, householdID int64) error {
	var hh householdDatamodel.Household
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", householdID).
		Take(&hh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrHouseholdNotFound
	}
	return err
}

func (r *BalanceRepository) GetRows(ctx context.Context, householdID int64) ([]balance.Row, error) {
	var models []balanceDatamodel.Balance
	err := database.Conn(ctx, r.db).
		Where("household_id = ?", householdID).
		Order("member_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	rows := make([]balance.Row, len(models))
	for i, m := range models {
		rows[i] = balance.Row{
			MemberID: m.MemberID,
			Sum:      money.FromCents(m.SumCents),
			Sign:     money.Sign(m.Sign),
		}
	}
	return rows, nil
}

func (r *BalanceRepository) SaveRows(ctx context.Context, householdID int64, rows []balance.Row) error {
	if len(rows) == 0 {
		return nil
	}

	models := make([]balanceDatamodel.Balance, len(rows))
	for i, row := range rows {
		models[i] = balanceDatamodel.Balance{
			HouseholdID: householdID,
			MemberID:    row.MemberID,
			SumCents:    row.Sum.Cents(),
			Sign:        string(row.Sign),
		}
	}

	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "household_id"}, {Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"sum_cents", "sign", "updated_at"}),
		}).
		Create(&models).Error
}

func (r *BalanceRepository) DeleteRow(ctx context.Context, householdID, memberID int64) error {
	return database.Conn(ctx, r.db).
		Where("household_id = ? AND member_id = ?", householdID, memberID).
		Delete(&balanceDatamodel.Balance{}).Error
}
