package household

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/common/validation"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	"github.com/frahmantamala/household-ledger/internal/core/events"
)

type Repository interface {
	Create(ctx context.Context, h *Household) error
	GetByID(ctx context.Context, id int64) (*Household, error)
	ListForUser(ctx context.Context, userID int64) ([]*Household, error)
	AddMember(ctx context.Context, householdID, userID int64, role string) error
	RemoveMember(ctx context.Context, householdID, userID int64) error
	// GetMember returns internal.ErrMemberNotFound when userID does not belong to the household.
	GetMember(ctx context.Context, householdID, userID int64) (*Member, error)
	ListMembers(ctx context.Context, householdID int64) ([]*Member, error)
	FindUserIDByEmail(ctx context.Context, email string) (int64, error)
	// HasOpenExpenses reports whether userID takes part in an expense of the
	// household that is still awaiting approval.
	HasOpenExpenses(ctx context.Context, householdID, userID int64) (bool, error)
}

// Accounts opens and closes balance rows as membership changes.
type Accounts interface {
	OpenAccount(ctx context.Context, householdID, memberID int64) error
	CloseAccount(ctx context.Context, householdID, memberID int64) error
}

type Service struct {
	repo      Repository
	accounts  Accounts
	tx        database.Transactor
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, accounts Accounts, tx database.Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateHousehold makes the creator its first admin with a +0 balance.
func (s *Service) CreateHousehold(ctx context.Context, creatorID int64, dto CreateHouseholdDTO) (*Household, error) {
	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	hh := &Household{Name: dto.Name, CreatedBy: creatorID}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, hh); err != nil {
			return err
		}
		if err := s.repo.AddMember(ctx, hh.ID, creatorID, RoleAdmin); err != nil {
			return err
		}
		return s.accounts.OpenAccount(ctx, hh.ID, creatorID)
	})
	if err != nil {
		s.logger.Error("failed to create household", "error", err, "user_id", creatorID)
		return nil, err
	}

	s.logger.Info("household created", "household_id", hh.ID, "user_id", creatorID)
	s.publish(ctx, events.NewMemberEvent(events.EventTypeMemberAdded, hh.ID, creatorID, creatorID))
	return hh, nil
}

func (s *Service) GetHousehold(ctx context.Context, householdID int64) (*Household, error) {
	return s.repo.GetByID(ctx, householdID)
}

func (s *Service) ListHouseholds(ctx context.Context, userID int64) ([]*Household, error) {
	return s.repo.ListForUser(ctx, userID)
}

// AddMember lets an admin invite an existing user by email.
func (s *Service) AddMember(ctx context.Context, householdID, actorID int64, dto AddMemberDTO) (*Member, error) {
	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, householdID, actorID); err != nil {
		return nil, err
	}

	userID, err := s.repo.FindUserIDByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.repo.GetMember(ctx, householdID, userID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user %d", internal.ErrMemberExists, userID)
		case !errors.Is(err, internal.ErrMemberNotFound):
			return err
		}

		if err := s.repo.AddMember(ctx, householdID, userID, dto.Role); err != nil {
			return err
		}
		return s.accounts.OpenAccount(ctx, householdID, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member added", "household_id", householdID, "user_id", userID, "actor_id", actorID)
	s.publish(ctx, events.NewMemberEvent(events.EventTypeMemberAdded, householdID, userID, actorID))
	return s.repo.GetMember(ctx, householdID, userID)
}

// RemoveMember lets an admin remove a member whose balance is exactly +0 and
// who takes part in no expense still awaiting approval.
func (s *Service) RemoveMember(ctx context.Context, householdID, actorID, userID int64) error {
	if err := s.requireAdmin(ctx, householdID, actorID); err != nil {
		return err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetMember(ctx, householdID, userID); err != nil {
			return err
		}
		open, err := s.repo.HasOpenExpenses(ctx, householdID, userID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: user %d in household %d", internal.ErrOpenExpenses, userID, householdID)
		}
		if err := s.accounts.CloseAccount(ctx, householdID, userID); err != nil {
			return err
		}
		return s.repo.RemoveMember(ctx, householdID, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("member removed", "household_id", householdID, "user_id", userID, "actor_id", actorID)
	s.publish(ctx, events.NewMemberEvent(events.EventTypeMemberRemoved, householdID, userID, actorID))
	return nil
}

func (s *Service) ListMembers(ctx context.Context, householdID int64) ([]*Member, error) {
	if _, err := s.repo.GetByID(ctx, householdID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, householdID)
}

func (s *Service) IsMember(ctx context.Context, householdID, userID int64) (bool, error) {
	_, err := s.repo.GetMember(ctx, householdID, userID)
	if errors.Is(err, internal.ErrMemberNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) IsAdmin(ctx context.Context, householdID, userID int64) (bool, error) {
	m, err := s.repo.GetMember(ctx, householdID, userID)
	if errors.Is(err, internal.ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsAdmin(), nil
}

// RequireMembers fails with ErrMemberNotFound naming the first id that is not
// part of the household.
func (s *Service) RequireMembers(ctx context.Context, householdID int64, userIDs ...int64) error {
	members, err := s.repo.ListMembers(ctx, householdID)
	if err != nil {
		return err
	}

	known := make(map[int64]struct{}, len(members))
	for _, m := range members {
		known[m.UserID] = struct{}{}
	}
	for _, id := range userIDs {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: user %d in household %d", internal.ErrMemberNotFound, id, householdID)
		}
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, householdID, actorID int64) error {
	if _, err := s.repo.GetByID(ctx, householdID); err != nil {
		return err
	}
	isAdmin, err := s.IsAdmin(ctx, householdID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("%w: household admin required", internal.ErrUnauthorizedAccess)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}
