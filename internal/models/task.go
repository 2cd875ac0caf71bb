package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskScheduled  TaskStatus = "scheduled"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Expertise areas a professional help request can target.
var Expertises = []string{
	"plumbing",
	"electrical",
	"carpentry",
	"painting",
	"cleaning",
	"gardening",
	"moving",
	"other",
}

// Price bounds of a professional help request, in HUF.
var (
	MinTaskPrice  = decimal.NewFromInt(5000)
	MaxTaskPrice  = decimal.NewFromInt(50000)
	TaskPriceStep = decimal.NewFromInt(1000)
)

type ProfessionalTask struct {
	ID           string          `json:"id" db:"id"`
	UserID       string          `json:"user_id" db:"user_id"`
	CheckoutID   string          `json:"checkout_id" db:"checkout_id"`
	Title        string          `json:"title" db:"title"`
	Problem      string          `json:"problem" db:"problem"`
	Expertise    string          `json:"expertise" db:"expertise"`
	Location     string          `json:"location" db:"location"`
	Price        decimal.Decimal `json:"price" db:"price"`
	SpecialistID *string         `json:"specialist_id,omitempty" db:"specialist_id"`
	Status       TaskStatus      `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

type ProfessionalHelpRequest struct {
	Title     string          `json:"title" validate:"omitempty,max=200"`
	Problem   string          `json:"problem" validate:"required,max=4000"`
	Expertise string          `json:"expertise" validate:"required,oneof=plumbing electrical carpentry painting cleaning gardening moving other"`
	Location  string          `json:"location" validate:"required,max=300"`
	Price     decimal.Decimal `json:"price"`
}

// TaskSubmission is a validated request bound to its payment.
type TaskSubmission struct {
	Task     ProfessionalTask
	Checkout WalletMutation
}

type TaskSubmissionResult struct {
	Task     ProfessionalTask `json:"task"`
	Checkout CheckoutResult   `json:"checkout"`
}

type TaskFilter struct {
	// Status is empty for all statuses.
	Status TaskStatus
	Since  *time.Time
	Limit  int
}
