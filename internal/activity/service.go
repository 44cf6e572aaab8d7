package activity

import (
	"context"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListActivity returns the household feed, newest first.
func (s *Service) ListActivity(ctx context.Context, householdID int64, limit, offset int) ([]*Entry, error) {
	entries, err := s.repo.ListByHousehold(ctx, householdID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list activity", "error", err, "household_id", householdID)
		return nil, err
	}
	return entries, nil
}
