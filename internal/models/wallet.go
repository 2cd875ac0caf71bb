package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutKind string

const (
	CheckoutService CheckoutKind = "service"
	CheckoutTopUp   CheckoutKind = "topup"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Checkout is one accepted wallet mutation, unique per (user, idempotency key).
type Checkout struct {
	ID             string          `json:"id" db:"id"`
	UserID         string          `json:"user_id" db:"user_id"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Description    string          `json:"description" db:"description"`
	Kind           CheckoutKind    `json:"kind" db:"kind"`
	BalanceAfter   decimal.Decimal `json:"balance_after" db:"balance_after"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// WalletMutation is the input of a checkout or a top-up.
type WalletMutation struct {
	UserID         string
	IdempotencyKey string
	Amount         decimal.Decimal
	Description    string
	Kind           CheckoutKind
}

type CheckoutResult struct {
	Checkout Checkout        `json:"checkout"`
	Balance  decimal.Decimal `json:"balance"`
	// Replayed is set when the idempotency key had already been processed.
	Replayed bool `json:"replayed"`
}

// FinancialRecord is an append-only ledger row. Amount is signed: debits are
// negative.
type FinancialRecord struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Description     string          `json:"description" db:"description"`
	CheckoutID      *string         `json:"checkout_id,omitempty" db:"checkout_id"`
	Date            time.Time       `json:"date" db:"date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

type Wallet struct {
	Balance decimal.Decimal   `json:"balance"`
	Records []FinancialRecord `json:"records"`
}

// ChartPoint is the net ledger movement of one month.
type ChartPoint struct {
	Month  int             `json:"month" db:"month"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
}
