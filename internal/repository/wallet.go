package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

const (
	insertCheckoutSQL = `
		INSERT INTO checkouts (id, user_id, idempotency_key, amount, description, kind)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
		RETURNING id, created_at`

	selectCheckoutSQL = `
		SELECT id, user_id, idempotency_key, amount, description, kind, balance_after, created_at
		FROM checkouts
		WHERE user_id = $1 AND idempotency_key = $2`

	debitBalanceSQL = `
		UPDATE profiles SET balance = balance - $1, updated_at = now()
		WHERE user_id = $2 AND balance >= $1
		RETURNING balance`

	creditBalanceSQL = `
		UPDATE profiles SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2
		RETURNING balance`

	selectBalanceSQL = `SELECT balance FROM profiles WHERE user_id = $1`

	insertRecordSQL = `
		INSERT INTO financial_records (id, user_id, amount, transaction_type, description, checkout_id)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateCheckoutBalanceSQL = `UPDATE checkouts SET balance_after = $1 WHERE id = $2`
)

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Apply performs a checkout or a top-up atomically. A repeated idempotency
// key returns the stored result without touching the balance.
func (r *WalletRepository) Apply(ctx context.Context, m models.WalletMutation) (*models.CheckoutResult, error) {
	var result *models.CheckoutResult
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := applyMutation(ctx, tx, m)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *WalletRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.GetContext(ctx, &balance, selectBalanceSQL, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, apperror.NotFound("profile")
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// applyMutation runs inside the caller's transaction so other writes (a task
// insert) commit or roll back together with the payment.
func applyMutation(ctx context.Context, tx *sqlx.Tx, m models.WalletMutation) (*models.CheckoutResult, error) {
	checkout := models.Checkout{
		ID:             uuid.NewString(),
		UserID:         m.UserID,
		IdempotencyKey: m.IdempotencyKey,
		Amount:         m.Amount,
		Description:    m.Description,
		Kind:           m.Kind,
	}

	err := tx.QueryRowxContext(ctx, insertCheckoutSQL,
		checkout.ID, m.UserID, m.IdempotencyKey, m.Amount, m.Description, m.Kind,
	).Scan(&checkout.ID, &checkout.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return replay(ctx, tx, m)
	}
	if err != nil {
		return nil, fmt.Errorf("insert checkout: %w", err)
	}

	var (
		balance    decimal.Decimal
		updateSQL  = debitBalanceSQL
		recordAmt  = m.Amount.Neg()
		recordType = models.TransactionDebit
	)
	if m.Kind == models.CheckoutTopUp {
		updateSQL = creditBalanceSQL
		recordAmt = m.Amount
		recordType = models.TransactionCredit
	}

	err = tx.QueryRowxContext(ctx, updateSQL, m.Amount, m.UserID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, balanceFailure(ctx, tx, m.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insertRecordSQL,
		uuid.NewString(), m.UserID, recordAmt, recordType, m.Description, checkout.ID,
	); err != nil {
		return nil, fmt.Errorf("insert financial record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, updateCheckoutBalanceSQL, balance, checkout.ID); err != nil {
		return nil, fmt.Errorf("store balance after: %w", err)
	}
	checkout.BalanceAfter = balance

	return &models.CheckoutResult{Checkout: checkout, Balance: balance}, nil
}

func replay(ctx context.Context, tx *sqlx.Tx, m models.WalletMutation) (*models.CheckoutResult, error) {
	var stored models.Checkout
	if err := tx.GetContext(ctx, &stored, selectCheckoutSQL, m.UserID, m.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("load checkout for replay: %w", err)
	}
	if !stored.Amount.Equal(m.Amount) || stored.Description != m.Description || stored.Kind != m.Kind {
		return nil, apperror.Conflict("idempotency key was already used for a different request")
	}
	return &models.CheckoutResult{Checkout: stored, Balance: stored.BalanceAfter, Replayed: true}, nil
}

// balanceFailure explains a conditional update that matched no row.
func balanceFailure(ctx context.Context, tx *sqlx.Tx, userID string) error {
	var current decimal.Decimal
	err := tx.GetContext(ctx, &current, selectBalanceSQL, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("profile")
	}
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	return apperror.InsufficientBalance()
}
