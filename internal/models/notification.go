package models

import "time"

type NotificationType string

const (
	NotificationProfessional  NotificationType = "professional"
	NotificationAI            NotificationType = "ai"
	NotificationAdvertisement NotificationType = "advertisement"
	NotificationSystem        NotificationType = "system"
)

type Notification struct {
	ID          string           `json:"id" db:"id"`
	UserID      string           `json:"user_id" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Action      *string          `json:"action,omitempty" db:"action"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

type NotificationFilter struct {
	// Type is empty for all types.
	Type       NotificationType
	UnreadOnly bool
	Limit      int
}
