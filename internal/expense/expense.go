package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/balance"
	expenseDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/expense"
	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/split"
)

const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

const (
	sidePaid = "paid"
	sideOwed = "owed"
)

type Approval struct {
	MemberID  int64      `json:"member_id"`
	Status    string     `json:"status"`
	Reason    *string    `json:"reason,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// Params carries everything needed to build or rebuild an entry.
type Params struct {
	HouseholdID int64
	CreatorID   int64
	Amount      money.Money
	Category    string
	Description string
	Paid        split.Input
	Owed        split.Input
}

// Expense is one shared expense awaiting or past its approval round. Its
// status is never written directly; it is derived from the approvals.
type Expense struct {
	ID              int64        `json:"id"`
	HouseholdID     int64        `json:"household_id"`
	CreatedBy       int64        `json:"created_by"`
	Amount          money.Money  `json:"amount"`
	Category        string       `json:"category"`
	Description     string       `json:"description"`
	Paid            split.Result `json:"paid"`
	Owed            split.Result `json:"owed"`
	Approvals       []Approval   `json:"approvals"`
	Status          string       `json:"status"`
	RejectionReason *string      `json:"rejection_reason,omitempty"`
	Version         int64        `json:"version"`
	ApprovedAt      *time.Time   `json:"approved_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// New splits both sides, checks that they reconcile, and opens the approval
// round with the creator's own vote already cast. An entry whose only
// participant is the creator comes back Approved.
func New(p Params, now time.Time) (*Expense, error) {
	e := &Expense{
		HouseholdID: p.HouseholdID,
		CreatedBy:   p.CreatorID,
		CreatedAt:   now,
	}
	if err := e.apply(p, now); err != nil {
		return nil, err
	}
	return e, nil
}

// Revise replaces amount and splits and restarts the approval round. It is
// refused once the entry has ever been approved.
func (e *Expense) Revise(p Params, now time.Time) error {
	if e.Status == StatusApproved || e.ApprovedAt != nil {
		return fmt.Errorf("%w: expense %d is already approved", internal.ErrCannotModifyExpense, e.ID)
	}
	p.HouseholdID = e.HouseholdID
	p.CreatorID = e.CreatedBy

	revised := *e
	if err := revised.apply(p, now); err != nil {
		return err
	}
	*e = revised
	return nil
}

func (e *Expense) apply(p Params, now time.Time) error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", internal.ErrInvalidArgument)
	}
	if p.Owed.Method == split.MethodSingle {
		return fmt.Errorf("%w: single is only valid for the paid side", internal.ErrInvalidArgument)
	}

	paid, err := split.Calculate(p.Amount, p.Paid)
	if err != nil {
		return fmt.Errorf("paid side: %w", err)
	}
	if paid.Method != split.MethodSingle && len(paid.Shares) < 2 {
		return fmt.Errorf("%w: a shared payment needs at least two payers, use single for one", internal.ErrInvalidArgument)
	}

	owed, err := split.Calculate(p.Amount, p.Owed)
	if err != nil {
		return fmt.Errorf("owed side: %w", err)
	}

	if paid.Total() != owed.Total() || paid.Total() != p.Amount {
		return fmt.Errorf("%w: paid %s, owed %s, amount %s", internal.ErrSplitMismatch, paid.Total(), owed.Total(), p.Amount)
	}

	e.Amount = p.Amount
	e.Category = strings.TrimSpace(p.Category)
	e.Description = strings.TrimSpace(p.Description)
	e.Paid = paid
	e.Owed = owed
	e.RejectionReason = nil
	e.ApprovedAt = nil
	e.UpdatedAt = now

	participants := e.Participants()
	e.Approvals = make([]Approval, len(participants))
	for i, id := range participants {
		e.Approvals[i] = Approval{MemberID: id, Status: ApprovalPending}
		if id == e.CreatedBy {
			decided := now
			e.Approvals[i].Status = ApprovalApproved
			e.Approvals[i].DecidedAt = &decided
		}
	}

	e.transition(now)
	return nil
}

// Participants lists paid members then owed-only members, in input order.
func (e *Expense) Participants() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, r := range []split.Result{e.Paid, e.Owed} {
		for _, s := range r.Shares {
			if _, ok := seen[s.MemberID]; ok {
				continue
			}
			seen[s.MemberID] = struct{}{}
			ids = append(ids, s.MemberID)
		}
	}
	return ids
}

// Deltas is |paid - owed| per participant, signed + when the member paid at
// least their share. The deltas of one entry always net to zero.
func (e *Expense) Deltas() []balance.Delta {
	participants := e.Participants()
	deltas := make([]balance.Delta, len(participants))
	for i, id := range participants {
		sum, sign := money.FromSigned(e.Paid.SumFor(id).Cents() - e.Owed.SumFor(id).Cents())
		deltas[i] = balance.Delta{MemberID: id, Sum: sum, Sign: sign}
	}
	return deltas
}

// Approve records memberID's approval. It reports true when this vote moved
// the entry to Approved, which is the only moment its deltas may be applied.
func (e *Expense) Approve(memberID int64, now time.Time) (bool, error) {
	a, err := e.pendingApproval(memberID)
	if err != nil {
		return false, err
	}

	decided := now
	a.Status = ApprovalApproved
	a.DecidedAt = &decided

	before := e.Status
	e.transition(now)
	return before != StatusApproved && e.Status == StatusApproved, nil
}

// Reject vetoes the entry on behalf of memberID.
func (e *Expense) Reject(memberID int64, reason string, now time.Time) error {
	a, err := e.pendingApproval(memberID)
	if err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	decided := now
	a.Status = ApprovalRejected
	a.Reason = &reason
	a.DecidedAt = &decided

	e.RejectionReason = &reason
	e.transition(now)
	return nil
}

// CanDelete allows removal of a rejected entry by its creator or a household admin.
func (e *Expense) CanDelete(userID int64, isAdmin bool) error {
	if e.Status != StatusRejected {
		return fmt.Errorf("%w: only rejected expenses can be deleted", internal.ErrCannotModifyExpense)
	}
	if userID != e.CreatedBy && !isAdmin {
		return fmt.Errorf("%w: only the creator or a household admin can delete", internal.ErrUnauthorizedAccess)
	}
	return nil
}

func (e *Expense) pendingApproval(memberID int64) (*Approval, error) {
	a := e.approval(memberID)
	if a == nil {
		return nil, fmt.Errorf("%w: member %d on expense %d", internal.ErrApprovalNotFound, memberID, e.ID)
	}
	if a.Status != ApprovalPending {
		return nil, fmt.Errorf("%w: member %d already %s", internal.ErrAlreadyDecided, memberID, a.Status)
	}
	if e.Status != StatusPendingApproval {
		return nil, fmt.Errorf("%w: expense %d is %s", internal.ErrEntryFinalized, e.ID, e.Status)
	}
	return a, nil
}

func (e *Expense) approval(memberID int64) *Approval {
	for i := range e.Approvals {
		if e.Approvals[i].MemberID == memberID {
			return &e.Approvals[i]
		}
	}
	return nil
}

// transition is the single place the entry's status changes.
func (e *Expense) transition(now time.Time) {
	e.Status = deriveStatus(e.Approvals)
	e.UpdatedAt = now
	if e.Status == StatusApproved && e.ApprovedAt == nil {
		approved := now
		e.ApprovedAt = &approved
	}
}

func deriveStatus(approvals []Approval) string {
	allApproved := true
	for _, a := range approvals {
		switch a.Status {
		case ApprovalRejected:
			return StatusRejected
		case ApprovalPending:
			allApproved = false
		}
	}
	if allApproved && len(approvals) > 0 {
		return StatusApproved
	}
	return StatusPendingApproval
}

// ToDataModel flattens the entry into its row, its share lines and its approvals.
func ToDataModel(e *Expense) (*expenseDatamodel.Expense, []expenseDatamodel.Share, []expenseDatamodel.Approval) {
	row := &expenseDatamodel.Expense{
		ID:              e.ID,
		HouseholdID:     e.HouseholdID,
		CreatedBy:       e.CreatedBy,
		AmountCents:     e.Amount.Cents(),
		Category:        e.Category,
		Description:     e.Description,
		PaidMethod:      string(e.Paid.Method),
		OwedMethod:      string(e.Owed.Method),
		Status:          e.Status,
		RejectionReason: e.RejectionReason,
		Version:         e.Version,
		ApprovedAt:      e.ApprovedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}

	shares := make([]expenseDatamodel.Share, 0, len(e.Paid.Shares)+len(e.Owed.Shares))
	for i, s := range e.Paid.Shares {
		shares = append(shares, expenseDatamodel.Share{ExpenseID: e.ID, MemberID: s.MemberID, Side: sidePaid, SumCents: s.Sum.Cents(), Position: i})
	}
	for i, s := range e.Owed.Shares {
		shares = append(shares, expenseDatamodel.Share{ExpenseID: e.ID, MemberID: s.MemberID, Side: sideOwed, SumCents: s.Sum.Cents(), Position: i})
	}

	approvals := make([]expenseDatamodel.Approval, len(e.Approvals))
	for i, a := range e.Approvals {
		approvals[i] = expenseDatamodel.Approval{
			ExpenseID: e.ID,
			MemberID:  a.MemberID,
			Status:    a.Status,
			Reason:    a.Reason,
			DecidedAt: a.DecidedAt,
		}
	}

	return row, shares, approvals
}

// FromDataModel rebuilds an entry. Shares must be ordered by position and
// approvals must follow participant order.
func FromDataModel(row *expenseDatamodel.Expense, shares []expenseDatamodel.Share, approvals []expenseDatamodel.Approval) *Expense {
	e := &Expense{
		ID:              row.ID,
		HouseholdID:     row.HouseholdID,
		CreatedBy:       row.CreatedBy,
		Amount:          money.FromCents(row.AmountCents),
		Category:        row.Category,
		Description:     row.Description,
		Paid:            split.Result{Method: split.Method(row.PaidMethod), Shares: []split.Share{}},
		Owed:            split.Result{Method: split.Method(row.OwedMethod), Shares: []split.Share{}},
		Status:          row.Status,
		RejectionReason: row.RejectionReason,
		Version:         row.Version,
		ApprovedAt:      row.ApprovedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}

	for _, s := range shares {
		share := split.Share{MemberID: s.MemberID, Sum: money.FromCents(s.SumCents)}
		if s.Side == sidePaid {
			e.Paid.Shares = append(e.Paid.Shares, share)
		} else {
			e.Owed.Shares = append(e.Owed.Shares, share)
		}
	}

	byMember := make(map[int64]expenseDatamodel.Approval, len(approvals))
	for _, a := range approvals {
		byMember[a.MemberID] = a
	}
	for _, id := range e.Participants() {
		a, ok := byMember[id]
		if !ok {
			continue
		}
		e.Approvals = append(e.Approvals, Approval{
			MemberID:  a.MemberID,
			Status:    a.Status,
			Reason:    a.Reason,
			DecidedAt: a.DecidedAt,
		})
	}

	return e
}
