package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/expense"
	"github.com/frahmantamala/household-ledger/internal/expense"
)

// ExpenseRepository implements expense.Repository using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	row, shares, approvals := expense.ToDataModel(e)
	row.Version = 1

	conn := database.Conn(ctx, r.db)
	if err := conn.Create(row).Error; err != nil {
		return err
	}
	if err := r.insertChildren(conn, row.ID, shares, approvals); err != nil {
		return err
	}

	e.ID = row.ID
	e.Version = row.Version
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	return r.load(database.Conn(ctx, r.db), id)
}

func (r *ExpenseRepository) GetForUpdate(ctx context.Context, id int64) (*expense.Expense, error) {
	return r.load(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	row, shares, approvals := expense.ToDataModel(e)
	conn := database.Conn(ctx, r.db)

	result := conn.Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND version = ?", e.ID, e.Version).
		Updates(map[string]interface{}{
			"amount_cents":     row.AmountCents,
			"category":         row.Category,
			"description":      row.Description,
			"paid_method":      row.PaidMethod,
			"owed_method":      row.OwedMethod,
			"status":           row.Status,
			"rejection_reason": row.RejectionReason,
			"approved_at":      row.ApprovedAt,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: expense %d at version %d", internal.ErrConcurrentUpdate, e.ID, e.Version)
	}

	if err := conn.Where("expense_id = ?", e.ID).Delete(&expenseDatamodel.Share{}).Error; err != nil {
		return err
	}
	if err := conn.Where("expense_id = ?", e.ID).Delete(&expenseDatamodel.Approval{}).Error; err != nil {
		return err
	}
	if err := r.insertChildren(conn, e.ID, shares, approvals); err != nil {
		return err
	}

	e.Version++
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Where("expense_id = ?", id).Delete(&expenseDatamodel.Share{}).Error; err != nil {
		return err
	}
	if err := conn.Where("expense_id = ?", id).Delete(&expenseDatamodel.Approval{}).Error; err != nil {
		return err
	}

	result := conn.Where("id = ?", id).Delete(&expenseDatamodel.Expense{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) ListByHousehold(ctx context.Context, householdID int64, filter expense.ListFilter) ([]*expense.Expense, error) {
	conn := database.Conn(ctx, r.db)

	query := conn.Where("household_id = ?", householdID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []expenseDatamodel.Expense
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*expense.Expense{}, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var shares []expenseDatamodel.Share
	if err := conn.Where("expense_id IN ?", ids).Order("expense_id, side DESC, position").Find(&shares).Error; err != nil {
		return nil, err
	}
	var approvals []expenseDatamodel.Approval
	if err := conn.Where("expense_id IN ?", ids).Find(&approvals).Error; err != nil {
		return nil, err
	}

	sharesBy := make(map[int64][]expenseDatamodel.Share, len(rows))
	for _, s := range shares {
		sharesBy[s.ExpenseID] = append(sharesBy[s.ExpenseID], s)
	}
	approvalsBy := make(map[int64][]expenseDatamodel.Approval, len(rows))
	for _, a := range approvals {
		approvalsBy[a.ExpenseID] = append(approvalsBy[a.ExpenseID], a)
	}

	out := make([]*expense.Expense, len(rows))
	for i := range rows {
		out[i] = expense.FromDataModel(&rows[i], sharesBy[rows[i].ID], approvalsBy[rows[i].ID])
	}
	return out, nil
}

func (r *ExpenseRepository) load(conn *gorm.DB, id int64) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	if err := conn.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", internal.ErrExpenseNotFound, id)
		}
		return nil, err
	}

	// Shares are read without the locking clause; the expense row lock covers them.
	plain := conn.Session(&gorm.Session{NewDB: true})
	var shares []expenseDatamodel.Share
	if err := plain.Where("expense_id = ?", id).Order("side DESC, position").Find(&shares).Error; err != nil {
		return nil, err
	}
	var approvals []expenseDatamodel.Approval
	if err := plain.Where("expense_id = ?", id).Find(&approvals).Error; err != nil {
		return nil, err
	}

	return expense.FromDataModel(&row, shares, approvals), nil
}

func (r *ExpenseRepository) insertChildren(conn *gorm.DB, expenseID int64, shares []expenseDatamodel.Share, approvals []expenseDatamodel.Approval) error {
	for i := range shares {
		shares[i].ID = 0
		shares[i].ExpenseID = expenseID
	}
	for i := range approvals {
		approvals[i].ExpenseID = expenseID
	}
	if len(shares) > 0 {
		if err := conn.Create(&shares).Error; err != nil {
			return err
		}
	}
	if len(approvals) > 0 {
		if err := conn.Create(&approvals).Error; err != nil {
			return err
		}
	}
	return nil
}
