// Package split distributes an amount among household members.
//
// Every function is pure and deterministic, and every Result it returns sums to
// the requested total exactly, in cents.
package split

import (
	"fmt"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/money"
)

type Method string

const (
	MethodEqual   Method = "equal"
	MethodPercent Method = "percent"
	MethodManual  Method = "manual"
	// MethodSingle is only meaningful on the paid side: one member fronted everything.
	MethodSingle Method = "single"
)

func (m Method) Valid() bool {
	switch m {
	case MethodEqual, MethodPercent, MethodManual, MethodSingle:
		return true
	}
	return false
}

type Share struct {
	MemberID int64       `json:"member_id"`
	Sum      money.Money `json:"sum"`
}

type Result struct {
	Shares []Share `json:"shares"`
	Method Method  `json:"method"`
}

// Total is the sum of all shares.
func (r Result) Total() money.Money {
	var total money.Money
	for _, s := range r.Shares {
		total += s.Sum
	}
	return total
}

// SumFor returns the member's share, or zero when absent.
func (r Result) SumFor(memberID int64) money.Money {
	for _, s := range r.Shares {
		if s.MemberID == memberID {
			return s.Sum
		}
	}
	return money.Zero
}

func (r Result) MemberIDs() []int64 {
	ids := make([]int64, len(r.Shares))
	for i, s := range r.Shares {
		ids[i] = s.MemberID
	}
	return ids
}

type PercentEntry struct {
	MemberID   int64
	Percentage int
}

type ManualEntry struct {
	MemberID int64
	Sum      money.Money
}

// Input selects a method and carries the inputs that method reads.
type Input struct {
	Method      Method
	Members     []int64
	Percentages []PercentEntry
	Amounts     []ManualEntry
}

// Calculate dispatches to the calculator named by in.Method.
func Calculate(total money.Money, in Input) (Result, error) {
	switch in.Method {
	case MethodEqual:
		return Equal(total, in.Members)
	case MethodPercent:
		return Percent(total, in.Percentages)
	case MethodManual:
		return Manual(total, in.Amounts)
	case MethodSingle:
		if len(in.Members) != 1 {
			return Result{}, fmt.Errorf("%w: single split needs exactly one member, got %d", internal.ErrInvalidArgument, len(in.Members))
		}
		return Single(total, in.Members[0])
	default:
		return Result{}, fmt.Errorf("%w: unknown split method %q", internal.ErrInvalidArgument, in.Method)
	}
}

// Equal gives every member floor(total/n) and hands the remaining cents, one each,
// to the first members in the order supplied.
func Equal(total money.Money, members []int64) (Result, error) {
	if err := checkTotal(total); err != nil {
		return Result{}, err
	}
	if err := checkMembers(members); err != nil {
		return Result{}, err
	}

	n := int64(len(members))
	base := total.Cents() / n
	remainder := total.Cents() % n

	shares := make([]Share, len(members))
	for i, id := range members {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		shares[i] = Share{MemberID: id, Sum: money.FromCents(cents)}
	}

	return Result{Shares: shares, Method: MethodEqual}, nil
}

// Percent floors every entry's share and then hands the leftover cents, one
// each, to the entries with a non-zero percentage, in input order. The leftover
// is always smaller than the number of such entries, so a single pass places
// all of it and no entry moves by more than one cent.
func Percent(total money.Money, entries []PercentEntry) (Result, error) {
	if err := checkTotal(total); err != nil {
		return Result{}, err
	}
	if len(entries) == 0 {
		return Result{}, fmt.Errorf("%w: at least one participant is required", internal.ErrInvalidArgument)
	}

	ids := make([]int64, len(entries))
	sum := 0
	for i, e := range entries {
		if e.Percentage < 0 || e.Percentage > 100 {
			return Result{}, fmt.Errorf("%w: member %d has percentage %d", internal.ErrInvalidPercentage, e.MemberID, e.Percentage)
		}
		sum += e.Percentage
		ids[i] = e.MemberID
	}
	if err := checkMembers(ids); err != nil {
		return Result{}, err
	}
	if sum != 100 {
		return Result{}, fmt.Errorf("%w: got %d", internal.ErrInvalidPercentage, sum)
	}

	t := total.Cents()
	shares := make([]Share, len(entries))
	var assigned int64
	for i, e := range entries {
		p := int64(e.Percentage)
		cents := (t/100)*p + (t%100)*p/100
		shares[i] = Share{MemberID: e.MemberID, Sum: money.FromCents(cents)}
		assigned += cents
	}

	leftover := t - assigned
	for i := range entries {
		if leftover == 0 {
			break
		}
		if entries[i].Percentage == 0 {
			continue
		}
		shares[i].Sum++
		leftover--
	}
	if leftover != 0 {
		return Result{}, fmt.Errorf("%w: %d cents left after the percent split", internal.ErrAmountMismatch, leftover)
	}

	return Result{Shares: shares, Method: MethodPercent}, nil
}

// Manual validates caller-supplied amounts and packages them. It never adjusts.
func Manual(total money.Money, entries []ManualEntry) (Result, error) {
	if err := checkTotal(total); err != nil {
		return Result{}, err
	}
	if len(entries) == 0 {
		return Result{}, fmt.Errorf("%w: at least one participant is required", internal.ErrInvalidArgument)
	}

	ids := make([]int64, len(entries))
	shares := make([]Share, len(entries))
	var sum money.Money
	for i, e := range entries {
		if e.Sum < 0 {
			return Result{}, fmt.Errorf("%w: member %d has a negative amount", internal.ErrInvalidArgument, e.MemberID)
		}
		ids[i] = e.MemberID
		shares[i] = Share{MemberID: e.MemberID, Sum: e.Sum}
		sum += e.Sum
	}
	if err := checkMembers(ids); err != nil {
		return Result{}, err
	}
	if sum != total {
		return Result{}, fmt.Errorf("%w: entries sum to %s, total is %s", internal.ErrAmountMismatch, sum, total)
	}

	return Result{Shares: shares, Method: MethodManual}, nil
}

// Single puts the whole amount on one member.
func Single(total money.Money, memberID int64) (Result, error) {
	if err := checkTotal(total); err != nil {
		return Result{}, err
	}
	if err := checkMembers([]int64{memberID}); err != nil {
		return Result{}, err
	}
	return Result{
		Shares: []Share{{MemberID: memberID, Sum: total}},
		Method: MethodSingle,
	}, nil
}

func checkTotal(total money.Money) error {
	if !total.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", internal.ErrInvalidArgument, total)
	}
	if total.Cents() > money.MaxCents {
		return fmt.Errorf("%w: amount %s exceeds the largest supported amount", internal.ErrInvalidArgument, total)
	}
	return nil
}

func checkMembers(members []int64) error {
	if len(members) == 0 {
		return fmt.Errorf("%w: at least one participant is required", internal.ErrInvalidArgument)
	}
	seen := make(map[int64]struct{}, len(members))
	for _, id := range members {
		if id <= 0 {
			return fmt.Errorf("%w: invalid member id %d", internal.ErrInvalidArgument, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: member %d appears twice", internal.ErrInvalidArgument, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
