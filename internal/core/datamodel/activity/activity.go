package activity

import (
	"encoding/json"
	"time"
)

type Entry struct {
	ID          string          `gorm:"column:id;primaryKey"`
	HouseholdID int64           `gorm:"column:household_id;not null;index"`
	Type        string          `gorm:"column:type;not null"`
	Payload     json.RawMessage `gorm:"column:payload;not null"`
	OccurredAt  time.Time       `gorm:"column:occurred_at;not null"`
}

func (Entry) TableName() string {
	return "activity_log"
}
