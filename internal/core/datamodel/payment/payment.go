package payment

import "time"

type Payment struct {
	ID          int64      `gorm:"primaryKey"`
	HouseholdID int64      `gorm:"column:household_id;not null;index"`
	PayerID     int64      `gorm:"column:payer_id;not null"`
	PayeeID     int64      `gorm:"column:payee_id;not null"`
	AmountCents int64      `gorm:"column:amount_cents;not null"`
	Note        string     `gorm:"column:note"`
	Status      string     `gorm:"column:status;not null"`
	Version     int64      `gorm:"column:version;not null"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
