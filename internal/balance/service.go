package balance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/database"
	"github.com/frahmantamala/household-ledger/internal/core/money"
)

// Repository is the write side of the balance sheet. Every call expects to run
// inside a transaction started by the service.
type Repository interface {
	// LockHousehold takes the per-household lock that serializes balance writes.
	LockHousehold(ctx context.Context, householdID int64) error
	GetRows(ctx context.Context, householdID int64) ([]Row, error)
	SaveRows(ctx context.Context, householdID int64, rows []Row) error
	DeleteRow(ctx context.Context, householdID, memberID int64) error
}

// Reader serves lock-free balance queries.
type Reader interface {
	ListBalances(ctx context.Context, householdID int64) ([]Row, error)
	NetCents(ctx context.Context, householdID int64) (int64, error)
	HouseholdIDs(ctx context.Context) ([]int64, error)
}

type Service struct {
	repo   Repository
	reader Reader
	tx     database.Transactor
	logger *slog.Logger
}

func NewService(repo Repository, reader Reader, tx database.Transactor, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		reader: reader,
		tx:     tx,
		logger: logger,
	}
}

// ApplyDelta applies an approved expense's deltas. When ctx already carries a
// transaction the update joins it, so it commits or rolls back with the caller.
func (s *Service) ApplyDelta(ctx context.Context, householdID int64, deltas []Delta) error {
	return s.mutate(ctx, householdID, func(sheet *Sheet) error {
		return sheet.ApplyDelta(deltas)
	})
}

// ApplyPayment settles amount from payer to payee against the current sheet.
func (s *Service) ApplyPayment(ctx context.Context, householdID, payerID, payeeID int64, amount money.Money) error {
	return s.mutate(ctx, householdID, func(sheet *Sheet) error {
		return sheet.ApplyPayment(payerID, payeeID, amount)
	})
}

// OpenAccount gives a new member a +0 row.
func (s *Service) OpenAccount(ctx context.Context, householdID, memberID int64) error {
	return s.mutate(ctx, householdID, func(sheet *Sheet) error {
		sheet.Open(memberID)
		return nil
	})
}

// CloseAccount removes a member's row, refusing while it is not exactly +0.
func (s *Service) CloseAccount(ctx context.Context, householdID, memberID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockHousehold(ctx, householdID); err != nil {
			return err
		}
		rows, err := s.repo.GetRows(ctx, householdID)
		if err != nil {
			return err
		}
		row := NewSheet(householdID, rows).Row(memberID)
		if !row.IsZero() {
			return fmt.Errorf("%w: member %d is at %s%s", internal.ErrOutstandingBalance, memberID, row.Sign, row.Sum)
		}
		return s.repo.DeleteRow(ctx, householdID, memberID)
	})
}

// Position returns one member's current row.
func (s *Service) Position(ctx context.Context, householdID, memberID int64) (Row, error) {
	rows, err := s.reader.ListBalances(ctx, householdID)
	if err != nil {
		return Row{}, err
	}
	return NewSheet(householdID, rows).Row(memberID), nil
}

func (s *Service) GetBalances(ctx context.Context, householdID int64) ([]Row, error) {
	rows, err := s.reader.ListBalances(ctx, householdID)
	if err != nil {
		s.logger.Error("failed to list balances", "error", err, "household_id", householdID)
		return nil, err
	}
	return rows, nil
}

type VerifyResult struct {
	HouseholdID int64 `json:"household_id"`
	Members     int   `json:"members"`
	NetCents    int64 `json:"net_cents"`
	Balanced    bool  `json:"balanced"`
}

// Verify recomputes the household's net position, which must be zero.
func (s *Service) Verify(ctx context.Context, householdID int64) (VerifyResult, error) {
	rows, err := s.reader.ListBalances(ctx, householdID)
	if err != nil {
		return VerifyResult{}, err
	}
	net, err := s.reader.NetCents(ctx, householdID)
	if err != nil {
		return VerifyResult{}, err
	}

	result := VerifyResult{
		HouseholdID: householdID,
		Members:     len(rows),
		NetCents:    net,
		Balanced:    net == 0,
	}
	if !result.Balanced {
		s.logger.Error("balance sheet does not net to zero", "household_id", householdID, "net_cents", net)
	}
	return result, nil
}

// VerifyAll runs Verify over every household with balance rows.
func (s *Service) VerifyAll(ctx context.Context) ([]VerifyResult, error) {
	ids, err := s.reader.HouseholdIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]VerifyResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.Verify(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("verify household %d: %w", id, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) mutate(ctx context.Context, householdID int64, fn func(*Sheet) error) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockHousehold(ctx, householdID); err != nil {
			return err
		}

		rows, err := s.repo.GetRows(ctx, householdID)
		if err != nil {
			return err
		}

		sheet := NewSheet(householdID, rows)
		if err := fn(sheet); err != nil {
			return err
		}

		changed := sheet.Changed()
		if len(changed) == 0 {
			return nil
		}
		if err := s.repo.SaveRows(ctx, householdID, changed); err != nil {
			s.logger.Error("failed to save balances", "error", err, "household_id", householdID)
			return err
		}

		s.logger.Debug("balances updated", "household_id", householdID, "rows", len(changed))
		return nil
	})
}
