package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/household-ledger/internal/balance"
	"github.com/frahmantamala/household-ledger/internal/core/common/validation"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	"github.com/frahmantamala/household-ledger/internal/core/events"
	"github.com/frahmantamala/household-ledger/internal/core/money"
)

// Repository interface for payment database operations
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id int64) (*Payment, error)
	GetForUpdate(ctx context.Context, id int64) (*Payment, error)
	// Update is a compare-and-swap on p.Version.
	Update(ctx context.Context, p *Payment) error
	ListByHousehold(ctx context.Context, householdID int64, filter ListFilter) ([]*Payment, error)
}

type Members interface {
	RequireMembers(ctx context.Context, householdID int64, userIDs ...int64) error
}

type Balances interface {
	Position(ctx context.Context, householdID, memberID int64) (balance.Row, error)
	ApplyPayment(ctx context.Context, householdID, payerID, payeeID int64, amount money.Money) error
}

type Service struct {
	repo      Repository
	members   Members
	balances  Balances
	tx        database.Transactor
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
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

// CreatePayment records a pending payment from payerID. The current sheet must
// already show payerID owing and the payee being owed at least amount.
func (s *Service) CreatePayment(ctx context.Context, householdID, payerID int64, dto CreatePaymentDTO) (*Payment, error) {
	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	p, err := New(householdID, payerID, dto.PayeeID, dto.Amount, dto.Note, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMembers(ctx, householdID, payerID, dto.PayeeID); err != nil {
		return nil, err
	}

	payer, err := s.balances.Position(ctx, householdID, payerID)
	if err != nil {
		return nil, err
	}
	payee, err := s.balances.Position(ctx, householdID, dto.PayeeID)
	if err != nil {
		return nil, err
	}
	if err := p.CheckAgainst(payer, payee); err != nil {
		s.logger.Warn("payment refused",
			"error", err,
			"household_id", householdID,
			"payer_id", payerID,
			"payee_id", dto.PayeeID,
			"amount", dto.Amount.String())
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create payment record", "error", err, "household_id", householdID)
		return nil, err
	}

	s.logger.Info("payment created",
		"payment_id", p.ID,
		"household_id", householdID,
		"payer_id", payerID,
		"payee_id", p.PayeeID,
		"amount", p.Amount.String())

	s.publish(ctx, events.NewPaymentEvent(events.EventTypePaymentCreated, householdID, p.ID, payerID, p.PayeeID, p.Amount.String()))
	return p, nil
}

// AcceptPayment settles the payment against the sheet as it is now, in the
// same transaction that marks it accepted.
func (s *Service) AcceptPayment(ctx context.Context, id, actorID int64) (*Payment, error) {
	var p *Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Accept(actorID, s.now()); err != nil {
			return err
		}
		if err := s.balances.ApplyPayment(ctx, p.HouseholdID, p.PayerID, p.PayeeID, p.Amount); err != nil {
			return err
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		s.logger.Warn("accept payment failed", "error", err, "payment_id", id, "user_id", actorID)
		return nil, err
	}

	s.logger.Info("payment accepted", "payment_id", id, "household_id", p.HouseholdID, "amount", p.Amount.String())
	s.publish(ctx, events.NewPaymentEvent(events.EventTypePaymentAccepted, p.HouseholdID, p.ID, p.PayerID, p.PayeeID, p.Amount.String()))
	return p, nil
}

// RejectPayment lets the payee decline; balances do not move.
func (s *Service) RejectPayment(ctx context.Context, id, actorID int64) (*Payment, error) {
	var p *Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Reject(actorID, s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		s.logger.Warn("reject payment failed", "error", err, "payment_id", id, "user_id", actorID)
		return nil, err
	}

	s.logger.Info("payment rejected", "payment_id", id, "household_id", p.HouseholdID)
	s.publish(ctx, events.NewPaymentEvent(events.EventTypePaymentRejected, p.HouseholdID, p.ID, p.PayerID, p.PayeeID, p.Amount.String()))
	return p, nil
}

func (s *Service) ListHouseholdPayments(ctx context.Context, householdID int64, filter ListFilter) ([]*Payment, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}
	return s.repo.ListByHousehold(ctx, householdID, filter)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}
