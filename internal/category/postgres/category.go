package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/category"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/category"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*category.Category, error) {
	var rows []*categoryDatamodel.ExpenseCategory
	if err := database.Conn(ctx, r.db).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*category.Category, len(rows))
	for i, row := range rows {
		out[i] = category.FromDataModel(row)
	}
	return out, nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*category.Category, error) {
	var row categoryDatamodel.ExpenseCategory
	err := database.Conn(ctx, r.db).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", internal.ErrUnknownCategory, name)
		}
		return nil, err
	}
	return category.FromDataModel(&row), nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	row := category.ToDataModel(c)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", internal.ErrCategoryExists, c.Name)
		}
		return err
	}
	c.ID = row.ID
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	return database.Conn(ctx, r.db).
		Model(&categoryDatamodel.ExpenseCategory{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"description": c.Description,
			"is_active":   c.IsActive,
			"updated_at":  c.UpdatedAt,
		}).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
