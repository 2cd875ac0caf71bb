package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile is the per-user record provisioned on first sign-in. UserID matches
// the identity provider's user id and is unique.
type Profile struct {
	ID                   string          `json:"id" db:"id"`
	UserID               string          `json:"user_id" db:"user_id"`
	FullName             string          `json:"full_name" db:"full_name"`
	Email                string          `json:"email" db:"email"`
	AvatarURL            *string         `json:"avatar_url,omitempty" db:"avatar_url"`
	AcceptedTerms        bool            `json:"accepted_terms" db:"accepted_terms"`
	Balance              decimal.Decimal `json:"balance" db:"balance"`
	UnreadMessages       int             `json:"unread_messages" db:"unread_messages"`
	AIConversationsCount int             `json:"ai_conversations_count" db:"ai_conversations_count"`
	SpecialistTasksCount int             `json:"specialist_tasks_count" db:"specialist_tasks_count"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProfile carries what is known about a user at provisioning time.
type NewProfile struct {
	UserID        string
	Email         string
	FullName      string
	AcceptedTerms bool
}

type ProfileUpdate struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=2,max=120"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// DashboardStats are the counters shown on the dashboard cards.
type DashboardStats struct {
	Balance              decimal.Decimal `json:"balance"`
	UnreadMessages       int             `json:"unread_messages"`
	AIConversationsCount int             `json:"ai_conversations_count"`
	SpecialistTasksCount int             `json:"specialist_tasks_count"`
}

func (p *Profile) Stats() DashboardStats {
	return DashboardStats{
		Balance:              p.Balance,
		UnreadMessages:       p.UnreadMessages,
		AIConversationsCount: p.AIConversationsCount,
		SpecialistTasksCount: p.SpecialistTasksCount,
	}
}
