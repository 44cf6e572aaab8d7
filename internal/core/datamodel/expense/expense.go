package expense

import "time"

type Expense struct {
	ID              int64      `gorm:"primaryKey"`
	HouseholdID     int64      `gorm:"column:household_id;not null;index"`
	CreatedBy       int64      `gorm:"column:created_by;not null"`
	AmountCents     int64      `gorm:"column:amount_cents;not null"`
	Category        string     `gorm:"column:category"`
	Description     string     `gorm:"column:description;not null"`
	PaidMethod      string     `gorm:"column:paid_method;not null"`
	OwedMethod      string     `gorm:"column:owed_method;not null"`
	Status          string     `gorm:"column:status;not null"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	Version         int64      `gorm:"column:version;not null"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Share is one line of a split. Side is "paid" or "owed"; Position keeps input order.
type Share struct {
	ID        int64  `gorm:"primaryKey"`
	ExpenseID int64  `gorm:"column:expense_id;not null;index"`
	MemberID  int64  `gorm:"column:member_id;not null"`
	Side      string `gorm:"column:side;not null"`
	SumCents  int64  `gorm:"column:sum_cents;not null"`
	Position  int    `gorm:"column:position;not null"`
}

func (Share) TableName() string {
	return "expense_shares"
}

type Approval struct {
	ExpenseID int64      `gorm:"column:expense_id;primaryKey"`
	MemberID  int64      `gorm:"column:member_id;primaryKey"`
	Status    string     `gorm:"column:status;not null"`
	Reason    *string    `gorm:"column:reason"`
	DecidedAt *time.Time `gorm:"column:decided_at"`
}

func (Approval) TableName() string {
	return "expense_approvals"
}
