package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/household-ledger/internal/balance"
)

// Reader answers balance queries with plain SQL and takes no locks.
type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) ListBalances(ctx context.Context, householdID int64) ([]balance.Row, error) {
	query := r.db.Rebind(`SELECT member_id, sum_cents, sign FROM balances WHERE household_id = ? ORDER BY member_id`)

	rows := []balance.Row{}
	if err := r.db.SelectContext(ctx, &rows, query, householdID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Reader) NetCents(ctx context.Context, householdID int64) (int64, error) {
	query := r.db.Rebind(`SELECT CAST(COALESCE(SUM(CASE WHEN sign = '-' THEN -sum_cents ELSE sum_cents END), 0) AS BIGINT)
		FROM balances WHERE household_id = ?`)

	var net int64
	if err := r.db.GetContext(ctx, &net, query, householdID); err != nil {
		return 0, err
	}
	return net, nil
}

// HouseholdIDs lists every household that has at least one balance row.
func (r *Reader) HouseholdIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT household_id FROM balances ORDER BY household_id`); err != nil {
		return nil, err
	}
	return ids, nil
}
