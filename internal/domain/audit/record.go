package audit

import (
	"encoding/json"
	"time"
)

// Record is one immutable audit-trail row describing a mutating call. It is
// written in the same database transaction as the mutation it describes, so
// the trail is complete exactly when the ledger is.
type Record struct {
	ID         int64           `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewRecord builds a record, marshaling details to JSON.
func NewRecord(actor, action, entityType, entityID string, details any) (*Record, error) {
	var payload json.RawMessage
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		payload = data
	}

	return &Record{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    payload,
		CreatedAt:  time.Now(),
	}, nil
}
