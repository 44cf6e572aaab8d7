package balance

import (
	"fmt"
	"sort"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/money"
)

// Row is one member's position. Sum is a magnitude; Sign "+" means the member
// is owed money, "-" means they owe it.
type Row struct {
	MemberID int64       `json:"member_id" db:"member_id"`
	Sum      money.Money `json:"sum" db:"sum_cents"`
	Sign     money.Sign  `json:"sign" db:"sign"`
}

func (r Row) Signed() int64 {
	return money.Signed(r.Sum, r.Sign)
}

func (r Row) IsZero() bool {
	return r.Sum == 0
}

// Delta is the change one approved expense makes to one member's balance.
type Delta struct {
	MemberID int64       `json:"member_id"`
	Sum      money.Money `json:"sum"`
	Sign     money.Sign  `json:"sign"`
}

func (d Delta) Signed() int64 {
	return money.Signed(d.Sum, d.Sign)
}

// Sheet holds every balance row of one household. Mutations are all-or-nothing:
// a failed call leaves the rows exactly as they were.
type Sheet struct {
	HouseholdID int64
	rows        map[int64]Row
	dirty       map[int64]struct{}
}

func NewSheet(householdID int64, rows []Row) *Sheet {
	s := &Sheet{
		HouseholdID: householdID,
		rows:        make(map[int64]Row, len(rows)),
		dirty:       make(map[int64]struct{}),
	}
	for _, r := range rows {
		s.rows[r.MemberID] = r
	}
	return s
}

// Row returns the member's row, or +0 when the member has none yet.
func (s *Sheet) Row(memberID int64) Row {
	if r, ok := s.rows[memberID]; ok {
		return r
	}
	return Row{MemberID: memberID, Sign: money.SignPositive}
}

func (s *Sheet) Has(memberID int64) bool {
	_, ok := s.rows[memberID]
	return ok
}

// Rows returns every row ordered by member id.
func (s *Sheet) Rows() []Row {
	return s.sorted(func(int64) bool { return true })
}

// Changed returns the rows touched since the sheet was loaded.
func (s *Sheet) Changed() []Row {
	return s.sorted(func(id int64) bool {
		_, ok := s.dirty[id]
		return ok
	})
}

func (s *Sheet) sorted(keep func(int64) bool) []Row {
	out := make([]Row, 0, len(s.rows))
	for id, r := range s.rows {
		if keep(id) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// Net is the signed sum of all rows. A consistent sheet always nets to zero.
func (s *Sheet) Net() int64 {
	var net int64
	for _, r := range s.rows {
		net += r.Signed()
	}
	return net
}

// Open creates a +0 row for the member if none exists.
func (s *Sheet) Open(memberID int64) {
	if s.Has(memberID) {
		return
	}
	s.set(Row{MemberID: memberID, Sign: money.SignPositive})
}

// ApplyDelta adds every delta to its member's row, creating +0 rows as needed.
// The set must sum to zero on its own, otherwise the sheet would stop netting
// to zero.
func (s *Sheet) ApplyDelta(deltas []Delta) error {
	var net int64
	for _, d := range deltas {
		if !d.Sign.Valid() || d.Sum < 0 || d.MemberID <= 0 {
			return fmt.Errorf("%w: malformed delta for member %d", internal.ErrInvalidArgument, d.MemberID)
		}
		net += d.Signed()
	}
	if net != 0 {
		return fmt.Errorf("%w: delta set nets to %d cents", internal.ErrUnbalancedDelta, net)
	}

	for _, d := range deltas {
		row := s.Row(d.MemberID)
		sum, sign := money.FromSigned(row.Signed() + d.Signed())
		s.set(Row{MemberID: d.MemberID, Sum: sum, Sign: sign})
	}
	return nil
}

// ApplyPayment settles amount from payer to payee. The payer must currently owe
// and the payee must currently be owed, and the amount may not exceed either
// magnitude.
func (s *Sheet) ApplyPayment(payerID, payeeID int64, amount money.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", internal.ErrInvalidArgument)
	}
	if payerID == payeeID {
		return fmt.Errorf("%w: payer and payee are the same member", internal.ErrInvalidArgument)
	}

	payer, payee := s.Row(payerID), s.Row(payeeID)
	if payer.Sign != money.SignNegative || payer.IsZero() {
		return fmt.Errorf("%w: member %d does not owe anything", internal.ErrInvalidDirection, payerID)
	}
	if payee.Sign != money.SignPositive || payee.IsZero() {
		return fmt.Errorf("%w: member %d is not owed anything", internal.ErrInvalidDirection, payeeID)
	}
	if amount > payer.Sum {
		return fmt.Errorf("%w: %s exceeds the %s member %d owes", internal.ErrInsufficientBalance, amount, payer.Sum, payerID)
	}
	if amount > payee.Sum {
		return fmt.Errorf("%w: %s exceeds the %s member %d is owed", internal.ErrInsufficientBalance, amount, payee.Sum, payeeID)
	}

	payerSum, payerSign := money.FromSigned(payer.Signed() + amount.Cents())
	payeeSum, payeeSign := money.FromSigned(payee.Signed() - amount.Cents())
	s.set(Row{MemberID: payerID, Sum: payerSum, Sign: payerSign})
	s.set(Row{MemberID: payeeID, Sum: payeeSum, Sign: payeeSign})
	return nil
}

func (s *Sheet) set(r Row) {
	s.rows[r.MemberID] = r
	s.dirty[r.MemberID] = struct{}{}
}
