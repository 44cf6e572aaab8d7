// Package activity keeps an append-only household feed of ledger events for
// the notification layer to read.
package activity

import (
	"context"
	"encoding/json"
	"time"

	activityDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/activity"
)

type Entry struct {
	ID          string          `json:"id"`
	HouseholdID int64           `json:"household_id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type Repository interface {
	// Append ignores an entry whose id is already stored.
	Append(ctx context.Context, e *Entry) error
	ListByHousehold(ctx context.Context, householdID int64, limit, offset int) ([]*Entry, error)
}

func ToDataModel(e *Entry) *activityDatamodel.Entry {
	return &activityDatamodel.Entry{
		ID:          e.ID,
		HouseholdID: e.HouseholdID,
		Type:        e.Type,
		Payload:     e.Payload,
		OccurredAt:  e.OccurredAt,
	}
}

func FromDataModel(dm *activityDatamodel.Entry) *Entry {
	return &Entry{
		ID:          dm.ID,
		HouseholdID: dm.HouseholdID,
		Type:        dm.Type,
		Payload:     dm.Payload,
		OccurredAt:  dm.OccurredAt,
	}
}
