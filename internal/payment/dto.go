package payment

import (
	"strings"

	"github.com/frahmantamala/household-ledger/internal/core/money"
)

// CreatePaymentDTO is sent by the payer.
type CreatePaymentDTO struct {
	PayeeID int64       `json:"payee_id" validate:"required,gt=0"`
	Amount  money.Money `json:"amount" validate:"required,gt=0,max=10000000000000"`
	Note    string      `json:"note" validate:"max=255"`
}

func (d *CreatePaymentDTO) Normalize() {
	d.Note = strings.TrimSpace(d.Note)
}

type ListFilter struct {
	Status string `validate:"omitempty,oneof=pending accepted rejected"`
	Limit  int
	Offset int
}
