package models

import "time"

// Message is addressed to exactly one of ReceiverID or GroupID.
type Message struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	ReceiverID *string   `json:"receiver_id,omitempty" db:"receiver_id"`
	GroupID    *string   `json:"group_id,omitempty" db:"group_id"`
	Content    string    `json:"content" db:"content"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type MessageGroup struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	MemberIDs []string  `json:"member_ids" db:"-"`
}

// Contact summarises the direct conversation with one counterpart.
type Contact struct {
	UserID          string    `json:"user_id" db:"user_id"`
	FullName        string    `json:"full_name" db:"full_name"`
	AvatarURL       *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	LastMessage     string    `json:"last_message" db:"last_message"`
	LastMessageTime time.Time `json:"last_message_time" db:"last_message_time"`
	UnreadCount     int       `json:"unread_count" db:"unread_count"`
}

// SendMessageRequest targets exactly one of ReceiverID or GroupID.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"omitempty,uuid"`
	GroupID    string `json:"group_id" validate:"omitempty,uuid"`
	Content    string `json:"content" validate:"required,max=4000"`
}

type NewGroupRequest struct {
	Name      string   `json:"name" validate:"required,min=1,max=120"`
	MemberIDs []string `json:"member_ids" validate:"required,min=1,dive,uuid"`
}
