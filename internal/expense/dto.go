package expense

import (
	"strings"

	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/split"
)

type PercentDTO struct {
	MemberID   int64 `json:"member_id" validate:"required,gt=0"`
	Percentage int   `json:"percentage" validate:"min=0,max=100"`
}

type AmountDTO struct {
	MemberID int64       `json:"member_id" validate:"required,gt=0"`
	Amount   money.Money `json:"amount" validate:"min=0,max=10000000000000"`
}

// SideDTO selects how one side of an expense is split. Members is read by
// equal and single, Percentages by percent, Amounts by manual.
type SideDTO struct {
	Method      string       `json:"method" validate:"required,oneof=equal percent manual single"`
	Members     []int64      `json:"members,omitempty" validate:"omitempty,dive,gt=0"`
	Percentages []PercentDTO `json:"percentages,omitempty" validate:"omitempty,dive"`
	Amounts     []AmountDTO  `json:"amounts,omitempty" validate:"omitempty,dive"`
}

func (d SideDTO) ToInput() split.Input {
	in := split.Input{
		Method:  split.Method(d.Method),
		Members: d.Members,
	}
	for _, p := range d.Percentages {
		in.Percentages = append(in.Percentages, split.PercentEntry{MemberID: p.MemberID, Percentage: p.Percentage})
	}
	for _, a := range d.Amounts {
		in.Amounts = append(in.Amounts, split.ManualEntry{MemberID: a.MemberID, Sum: a.Amount})
	}
	return in
}

// MemberIDs lists every member the side names, whatever its method.
func (d SideDTO) MemberIDs() []int64 {
	ids := append([]int64{}, d.Members...)
	for _, p := range d.Percentages {
		ids = append(ids, p.MemberID)
	}
	for _, a := range d.Amounts {
		ids = append(ids, a.MemberID)
	}
	return ids
}

type CreateExpenseDTO struct {
	Amount      money.Money `json:"amount" validate:"required,gt=0,max=10000000000000"`
	Category    string      `json:"category" validate:"max=50"`
	Description string      `json:"description" validate:"required,min=1,max=500"`
	Paid        SideDTO     `json:"paid"`
	Owed        SideDTO     `json:"owed"`
}

func (d *CreateExpenseDTO) Normalize() {
	d.Category = strings.ToLower(strings.TrimSpace(d.Category))
	d.Description = strings.TrimSpace(d.Description)
	d.Paid.Method = strings.ToLower(strings.TrimSpace(d.Paid.Method))
	d.Owed.Method = strings.ToLower(strings.TrimSpace(d.Owed.Method))
}

func (d CreateExpenseDTO) Params(householdID, creatorID int64) Params {
	return Params{
		HouseholdID: householdID,
		CreatorID:   creatorID,
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Paid:        d.Paid.ToInput(),
		Owed:        d.Owed.ToInput(),
	}
}

func (d CreateExpenseDTO) MemberIDs() []int64 {
	return append(d.Paid.MemberIDs(), d.Owed.MemberIDs()...)
}

// UpdateExpenseDTO replaces amount and both splits of an expense that was never approved.
type UpdateExpenseDTO = CreateExpenseDTO

type RejectExpenseDTO struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

func (d *RejectExpenseDTO) Normalize() {
	d.Reason = strings.TrimSpace(d.Reason)
}

type ListFilter struct {
	Status string `validate:"omitempty,oneof=pending_approval approved rejected"`
	Limit  int
	Offset int
}
