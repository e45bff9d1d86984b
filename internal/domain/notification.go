package domain

import "time"

type NotificationKind string

const (
	NotificationIntentSubmitted NotificationKind = "intent_submitted"
	NotificationIntentReviewed  NotificationKind = "intent_reviewed"
	NotificationPaymentVerified NotificationKind = "payment_verified"
)

// Notification is an in-app message about one intent, addressed to one user
type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	OrgID      int32             `json:"org_id"`
	IntentID   *int32            `json:"intent_id,omitempty"`
	Kind       NotificationKind  `json:"kind"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}
