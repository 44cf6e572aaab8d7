package balance

import "time"

// Balance is one member's position in a household. SumCents is a magnitude, the
// direction lives in Sign ("+" is owed money, "-" owes money).
type Balance struct {
	HouseholdID int64     `gorm:"column:household_id;primaryKey"`
	MemberID    int64     `gorm:"column:member_id;primaryKey"`
	SumCents    int64     `gorm:"column:sum_cents;not null"`
	Sign        string    `gorm:"column:sign;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
