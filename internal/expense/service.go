package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/balance"
	"github.com/frahmantamala/household-ledger/internal/core/common/validation"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	"github.com/frahmantamala/household-ledger/internal/core/events"
)

// Repository persists expenses together with their share lines and approvals.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	// GetForUpdate loads the expense and holds its row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Expense, error)
	// Update writes e only if its stored version still equals e.Version, then
	// bumps e.Version. A stale version returns internal.ErrConcurrentUpdate.
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id int64) error
	ListByHousehold(ctx context.Context, householdID int64, filter ListFilter) ([]*Expense, error)
}

type Members interface {
	RequireMembers(ctx context.Context, householdID int64, userIDs ...int64) error
	IsMember(ctx context.Context, householdID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, householdID, userID int64) (bool, error)
}

type Balances interface {
	ApplyDelta(ctx context.Context, householdID int64, deltas []balance.Delta) error
}

// Categories checks a category name against the catalog.
type Categories interface {
	Validate(ctx context.Context, name string) error
}

type Service struct {
	repo       Repository
	members    Members
	balances   Balances
	tx         database.Transactor
	publisher  events.Publisher
	categories Categories
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo Repository, members Members, balances Balances, tx database.Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		members:   members,
		balances:  balances,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithCategories restricts expense categories to the catalog. Without it any
// category text is accepted.
func (s *Service) WithCategories(c Categories) *Service {
	s.categories = c
	return s
}

func (s *Service) checkCategory(ctx context.Context, name string) error {
	if s.categories == nil || name == "" {
		return nil
	}
	return s.categories.Validate(ctx, name)
}

// CreateExpense records a new expense. When the creator is its only
// participant it is approved on the spot and its deltas land in the same
// transaction as the insert.
func (s *Service) CreateExpense(ctx context.Context, householdID, creatorID int64, dto CreateExpenseDTO) (*Expense, error) {
	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		s.logger.Warn("expense validation failed", "error", err, "user_id", creatorID)
		return nil, err
	}
	if err := s.checkCategory(ctx, dto.Category); err != nil {
		return nil, err
	}
	if err := s.members.RequireMembers(ctx, householdID, append([]int64{creatorID}, dto.MemberIDs()...)...); err != nil {
		return nil, err
	}

	e, err := New(dto.Params(householdID, creatorID), s.now())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return err
		}
		if e.Status == StatusApproved {
			return s.balances.ApplyDelta(ctx, householdID, e.Deltas())
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create expense", "error", err, "household_id", householdID, "user_id", creatorID)
		return nil, err
	}

	s.logger.Info("expense created",
		"expense_id", e.ID,
		"household_id", householdID,
		"user_id", creatorID,
		"amount", e.Amount.String(),
		"status", e.Status)

	s.publish(ctx, events.NewExpenseCreatedEvent(householdID, e.ID, creatorID, e.Amount.String(), e.Status))
	if e.Status == StatusApproved {
		s.publish(ctx, approvedEvent(e))
	}
	return e, nil
}

// GetExpense returns the expense when userID belongs to its household.
func (s *Service) GetExpense(ctx context.Context, id, userID int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, e.HouseholdID, userID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) ListHouseholdExpenses(ctx context.Context, householdID int64, filter ListFilter) ([]*Expense, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}
	return s.repo.ListByHousehold(ctx, householdID, filter)
}

// ApproveExpense records memberID's vote. The deltas are applied exactly once,
// by the call whose vote completes the approval round.
func (s *Service) ApproveExpense(ctx context.Context, id, memberID int64) (*Expense, error) {
	var (
		e        *Expense
		approved bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requireMember(ctx, e.HouseholdID, memberID); err != nil {
			return err
		}

		approved, err = e.Approve(memberID, s.now())
		if err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return err
		}
		if approved {
			return s.balances.ApplyDelta(ctx, e.HouseholdID, e.Deltas())
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("approve expense failed", "error", err, "expense_id", id, "member_id", memberID)
		return nil, err
	}

	s.logger.Info("expense approval recorded",
		"expense_id", id,
		"member_id", memberID,
		"status", e.Status)

	if approved {
		s.publish(ctx, approvedEvent(e))
	}
	return e, nil
}

// RejectExpense vetoes the expense. The balance sheet is not touched.
func (s *Service) RejectExpense(ctx context.Context, id, memberID int64, dto RejectExpenseDTO) (*Expense, error) {
	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	var e *Expense
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requireMember(ctx, e.HouseholdID, memberID); err != nil {
			return err
		}
		if err := e.Reject(memberID, dto.Reason, s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		s.logger.Warn("reject expense failed", "error", err, "expense_id", id, "member_id", memberID)
		return nil, err
	}

	s.logger.Info("expense rejected",
		"expense_id", id,
		"member_id", memberID,
		"reason", dto.Reason)

	s.publish(ctx, events.NewExpenseRejectedEvent(e.HouseholdID, e.ID, memberID, dto.Reason))
	return e, nil
}

// EditExpense lets the creator replace amount and splits of an expense that
// was never approved. Votes start over.
func (s *Service) EditExpense(ctx context.Context, id, userID int64, dto UpdateExpenseDTO) (*Expense, error) {
	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, dto.Category); err != nil {
		return nil, err
	}

	var e *Expense
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if e.CreatedBy != userID {
			return fmt.Errorf("%w: only the creator can edit expense %d", internal.ErrUnauthorizedAccess, id)
		}
		if err := s.members.RequireMembers(ctx, e.HouseholdID, dto.MemberIDs()...); err != nil {
			return err
		}
		if err := e.Revise(dto.Params(e.HouseholdID, userID), s.now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return err
		}
		if e.Status == StatusApproved {
			return s.balances.ApplyDelta(ctx, e.HouseholdID, e.Deltas())
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("edit expense failed", "error", err, "expense_id", id, "user_id", userID)
		return nil, err
	}

	s.logger.Info("expense edited", "expense_id", id, "user_id", userID, "status", e.Status)
	if e.Status == StatusApproved {
		s.publish(ctx, approvedEvent(e))
	}
	return e, nil
}

// DeleteExpense removes a rejected expense on behalf of its creator or a household admin.
func (s *Service) DeleteExpense(ctx context.Context, id, userID int64) error {
	var householdID int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		householdID = e.HouseholdID

		isAdmin, err := s.members.IsAdmin(ctx, e.HouseholdID, userID)
		if err != nil {
			return err
		}
		if err := e.CanDelete(userID, isAdmin); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Warn("delete expense failed", "error", err, "expense_id", id, "user_id", userID)
		return err
	}

	s.logger.Info("expense deleted", "expense_id", id, "user_id", userID)
	s.publish(ctx, events.NewExpenseDeletedEvent(householdID, id, userID))
	return nil
}

func (s *Service) requireMember(ctx context.Context, householdID, userID int64) error {
	ok, err := s.members.IsMember(ctx, householdID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %d is not in household %d", internal.ErrUnauthorizedAccess, userID, householdID)
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

func approvedEvent(e *Expense) events.Event {
	deltas := e.Deltas()
	payload := make([]events.DeltaPayload, len(deltas))
	for i, d := range deltas {
		payload[i] = events.DeltaPayload{MemberID: d.MemberID, Sum: d.Sum.String(), Sign: string(d.Sign)}
	}
	return events.NewExpenseApprovedEvent(e.HouseholdID, e.ID, e.Amount.String(), payload)
}
