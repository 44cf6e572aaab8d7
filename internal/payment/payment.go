package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/balance"
	paymentDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/payment"
	"github.com/frahmantamala/household-ledger/internal/core/money"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Payment is a direct settlement from a member who owes to a member who is
// owed. It only moves balances once the payee accepts it.
type Payment struct {
	ID          int64       `json:"id"`
	HouseholdID int64       `json:"household_id"`
	PayerID     int64       `json:"payer_id"`
	PayeeID     int64       `json:"payee_id"`
	Amount      money.Money `json:"amount"`
	Note        string      `json:"note,omitempty"`
	Status      string      `json:"status"`
	Version     int64       `json:"version"`
	DecidedAt   *time.Time  `json:"decided_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func New(householdID, payerID, payeeID int64, amount money.Money, note string, now time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", internal.ErrInvalidArgument)
	}
	if payerID == payeeID {
		return nil, fmt.Errorf("%w: payer and payee must differ", internal.ErrInvalidArgument)
	}
	return &Payment{
		HouseholdID: householdID,
		PayerID:     payerID,
		PayeeID:     payeeID,
		Amount:      amount,
		Note:        strings.TrimSpace(note),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CheckAgainst runs the payment against a scratch copy of the two members'
// rows, so a payment that could never be accepted is refused up front.
func (p *Payment) CheckAgainst(payer, payee balance.Row) error {
	sheet := balance.NewSheet(p.HouseholdID, []balance.Row{payer, payee})
	return sheet.ApplyPayment(p.PayerID, p.PayeeID, p.Amount)
}

func (p *Payment) Accept(actorID int64, now time.Time) error {
	return p.decide(actorID, StatusAccepted, now)
}

func (p *Payment) Reject(actorID int64, now time.Time) error {
	return p.decide(actorID, StatusRejected, now)
}

func (p *Payment) decide(actorID int64, status string, now time.Time) error {
	if actorID != p.PayeeID {
		return fmt.Errorf("%w: only the payee can decide on payment %d", internal.ErrUnauthorizedAccess, p.ID)
	}
	if p.Status != StatusPending {
		return fmt.Errorf("%w: payment %d is %s", internal.ErrPaymentFinalized, p.ID, p.Status)
	}
	decided := now
	p.Status = status
	p.DecidedAt = &decided
	p.UpdatedAt = now
	return nil
}

func ToDataModel(p *Payment) *paymentDatamodel.Payment {
	return &paymentDatamodel.Payment{
		ID:          p.ID,
		HouseholdID: p.HouseholdID,
		PayerID:     p.PayerID,
		PayeeID:     p.PayeeID,
		AmountCents: p.Amount.Cents(),
		Note:        p.Note,
		Status:      p.Status,
		Version:     p.Version,
		DecidedAt:   p.DecidedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModel(dm *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:          dm.ID,
		HouseholdID: dm.HouseholdID,
		PayerID:     dm.PayerID,
		PayeeID:     dm.PayeeID,
		Amount:      money.FromCents(dm.AmountCents),
		Note:        dm.Note,
		Status:      dm.Status,
		Version:     dm.Version,
		DecidedAt:   dm.DecidedAt,
		CreatedAt:   dm.CreatedAt,
		UpdatedAt:   dm.UpdatedAt,
	}
}
