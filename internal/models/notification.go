package models

import "time"

// Notification types.
const (
	NotificationOrder  = "order"
	NotificationReview = "review"
	NotificationOther  = "other"
)

// Notification is a per-user message created outside this service.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind folds unknown notification types into "other".
func (n Notification) Kind() string {
	switch n.Type {
	case NotificationOrder, NotificationReview:
		return n.Type
	default:
		return NotificationOther
	}
}
