package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/household-ledger/internal/activity"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	activityDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/activity"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, e *activity.Entry) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(activity.ToDataModel(e)).Error
}

func (r *ActivityRepository) ListByHousehold(ctx context.Context, householdID int64, limit, offset int) ([]*activity.Entry, error) {
	var dms []activityDatamodel.Entry
	query := database.Conn(ctx, r.db).
		Where("household_id = ?", householdID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&dms).Error; err != nil {
		return nil, err
	}

	out := make([]*activity.Entry, len(dms))
	for i := range dms {
		out[i] = activity.FromDataModel(&dms[i])
	}
	return out, nil
}
