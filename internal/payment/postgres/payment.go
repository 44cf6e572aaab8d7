package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	paymentDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/payment"
	"github.com/frahmantamala/household-ledger/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	dm := payment.ToDataModel(p)
	dm.Version = 1
	if err := database.Conn(ctx, r.db).Create(dm).Error; err != nil {
		return err
	}
	p.ID = dm.ID
	p.Version = dm.Version
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.get(database.Conn(ctx, r.db), id)
}

func (r *PaymentRepository) GetForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.get(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	result := database.Conn(ctx, r.db).Model(&paymentDatamodel.Payment{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"status":     p.Status,
			"decided_at": p.DecidedAt,
			"version":    gorm.Expr("version + 1"),
			"updated_at": p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: payment %d at version %d", internal.ErrConcurrentUpdate, p.ID, p.Version)
	}
	p.Version++
	return nil
}

func (r *PaymentRepository) ListByHousehold(ctx context.Context, householdID int64, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := database.Conn(ctx, r.db).Where("household_id = ?", householdID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var dms []paymentDatamodel.Payment
	if err := query.Order("created_at DESC, id DESC").Find(&dms).Error; err != nil {
		return nil, err
	}

	out := make([]*payment.Payment, len(dms))
	for i := range dms {
		out[i] = payment.FromDataModel(&dms[i])
	}
	return out, nil
}

func (r *PaymentRepository) get(conn *gorm.DB, id int64) (*payment.Payment, error) {
	var dm paymentDatamodel.Payment
	if err := conn.Where("id = ?", id).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", internal.ErrPaymentNotFound, id)
		}
		return nil, err
	}
	return payment.FromDataModel(&dm), nil
}
