package domain

import "time"

type ChangeType string

const (
	ChangeTypeCreated              ChangeType = "created"
	ChangeTypeUpdated              ChangeType = "updated"
	ChangeTypeReviewed             ChangeType = "reviewed"
	ChangeTypeDecisionChanged      ChangeType = "decision_changed"
	ChangeTypePaymentStatusChanged ChangeType = "payment_status_changed"
)

// FieldChange values are already formatted for display
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// ChangeHistoryEntry is one immutable row of an intent's audit log
type ChangeHistoryEntry struct {
	ID         int32         `json:"id"`
	IntentID   int32         `json:"intent_id"`
	Timestamp  time.Time     `json:"timestamp"`
	ActorID    *int32        `json:"actor_id"` // NULL for system actions
	ChangeType ChangeType    `json:"change_type"`
	Changes    []FieldChange `json:"changes"`
	Notes      string        `json:"notes"`
}
