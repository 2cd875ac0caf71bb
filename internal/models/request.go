package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SignUpRequest struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"accept_terms" validate:"eq=true"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// JWT token for authentication
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   *Profile  `json:"profile"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CheckoutRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=300"`
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// HistoryFilter selects conversations and tasks for the history view.
type HistoryFilter struct {
	// Time is all, week or month.
	Time string
	// Status is all, resolved, unresolved, completed, in-progress or scheduled.
	Status string
}

type History struct {
	AI           []AIConversation   `json:"ai"`
	Professional []ProfessionalTask `json:"professional"`
}

type Dashboard struct {
	Stats         DashboardStats     `json:"stats"`
	Chart         []ChartPoint       `json:"chart"`
	RecentChats   []AIConversation   `json:"recent_chats"`
	RecentTasks   []ProfessionalTask `json:"recent_tasks"`
	Advertisement *Advertisement     `json:"advertisement,omitempty"`
}
