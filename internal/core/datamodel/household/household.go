package household

import "time"

type Household struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedBy int64     `gorm:"column:created_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type Member struct {
	HouseholdID int64     `gorm:"column:household_id;primaryKey"`
	UserID      int64     `gorm:"column:user_id;primaryKey"`
	Role        string    `gorm:"column:role;not null"`
	JoinedAt    time.Time `gorm:"column:joined_at;autoCreateTime"`
}

func (Member) TableName() string {
	return "household_members"
}
