package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/common/validation"
)

type Repository interface {
	List(ctx context.Context) ([]*Category, error)
	// GetByName returns internal.ErrUnknownCategory when no row matches.
	GetByName(ctx context.Context, name string) (*Category, error)
	// Create returns internal.ErrCategoryExists on a duplicate name.
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetAllCategories lists the active categories by name.
func (s *Service) GetAllCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			responses = append(responses, c.ToResponse())
		}
	}

	s.logger.Debug("retrieved categories", "count", len(responses))
	return responses, nil
}

// Validate accepts name when it is an active catalog entry.
func (s *Service) Validate(ctx context.Context, name string) error {
	c, err := s.repo.GetByName(ctx, NormalizeName(name))
	if err != nil {
		return err
	}
	if !c.IsActive {
		return fmt.Errorf("%w: %s is retired", internal.ErrUnknownCategory, c.Name)
	}
	return nil
}

// Create adds a category, reactivating it when it was retired.
func (s *Service) Create(ctx context.Context, dto CreateCategoryDTO) (*Category, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	name := NormalizeName(dto.Name)
	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case err == nil && existing.IsActive:
		return nil, fmt.Errorf("%w: %s", internal.ErrCategoryExists, name)
	case err == nil:
		existing.Activate(s.now())
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("category reactivated", "name", name)
		return existing, nil
	case !isUnknown(err):
		return nil, err
	}

	c := NewCategory(name, dto.Description, s.now())
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("category created", "name", c.Name, "category_id", c.ID)
	return c, nil
}

// Retire hides a category from the catalog. Expenses already tagged with it keep the tag.
func (s *Service) Retire(ctx context.Context, name string) error {
	c, err := s.repo.GetByName(ctx, NormalizeName(name))
	if err != nil {
		return err
	}
	if !c.IsActive {
		return nil
	}
	c.Deactivate(s.now())
	if err := s.repo.Update(ctx, c); err != nil {
		return err
	}
	s.logger.Info("category retired", "name", c.Name)
	return nil
}

func isUnknown(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.Code == internal.ErrCodeUnknownCategory
}
