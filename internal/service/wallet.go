package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
)

const (
	maxIdempotencyKeyLength = 255
	ledgerPageSize          = 20
	topUpDescription        = "Balance top-up"
)

var maxWalletAmount = decimal.NewFromInt(10_000_000)

type WalletService struct {
	wallet  WalletStore
	finance FinanceStore
	metrics *metrics.Metrics
	emitter
}

func NewWalletService(wallet WalletStore, finance FinanceStore, pub events.Publisher, m *metrics.Metrics) *WalletService {
	return &WalletService{
		wallet:  wallet,
		finance: finance,
		metrics: m,
		emitter: emitter{pub: pub, metrics: m},
	}
}

// Checkout debits the caller's balance once per idempotency key.
func (s *WalletService) Checkout(ctx context.Context, userID, key string, req models.CheckoutRequest) (*models.CheckoutResult, error) {
	if err := ValidateIdempotencyKey(key); err != nil {
		return nil, err
	}
	if err := ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperror.Validation("description", "description is required")
	}

	return s.apply(ctx, models.WalletMutation{
		UserID:         userID,
		IdempotencyKey: key,
		Amount:         req.Amount,
		Description:    description,
		Kind:           models.CheckoutService,
	})
}

// TopUp credits the caller's balance once per idempotency key.
func (s *WalletService) TopUp(ctx context.Context, userID, key string, req models.TopUpRequest) (*models.CheckoutResult, error) {
	if err := ValidateIdempotencyKey(key); err != nil {
		return nil, err
	}
	if err := ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	return s.apply(ctx, models.WalletMutation{
		UserID:         userID,
		IdempotencyKey: key,
		Amount:         req.Amount,
		Description:    topUpDescription,
		Kind:           models.CheckoutTopUp,
	})
}

func (s *WalletService) Wallet(ctx context.Context, userID string) (*models.Wallet, error) {
	balance, err := s.wallet.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.finance.Records(ctx, userID, ledgerPageSize)
	if err != nil {
		return nil, err
	}
	return &models.Wallet{Balance: balance, Records: records}, nil
}

func (s *WalletService) apply(ctx context.Context, m models.WalletMutation) (*models.CheckoutResult, error) {
	log := zerolog.Ctx(ctx).With().
		Str("kind", string(m.Kind)).
		Str("amount", m.Amount.String()).
		Logger()

	res, err := s.wallet.Apply(ctx, m)
	if err != nil {
		outcome := metrics.OutcomeError
		if apperror.KindOf(err) != apperror.KindInternal {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.WalletOp(string(m.Kind), outcome)
		log.Warn().Err(err).Msg("wallet mutation failed")
		return nil, err
	}

	if res.Replayed {
		s.metrics.WalletOp(string(m.Kind), metrics.OutcomeReplayed)
		log.Info().Str("checkout_id", res.Checkout.ID).Msg("wallet mutation replayed")
		return res, nil
	}

	s.metrics.WalletOp(string(m.Kind), metrics.OutcomeSuccess)
	log.Info().Str("checkout_id", res.Checkout.ID).Str("balance", res.Balance.String()).Msg("wallet mutation applied")

	typ := events.CheckoutCompleted
	if m.Kind == models.CheckoutTopUp {
		typ = events.ToppedUp
	}
	s.emit(ctx, typ, m.UserID, events.WalletPayload{
		CheckoutID:  res.Checkout.ID,
		Amount:      m.Amount,
		Balance:     res.Balance,
		Description: m.Description,
	})
	return res, nil
}

func ValidateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperror.Validation("amount", "amount must be greater than zero")
	case !amount.Equal(amount.Round(2)):
		return apperror.Validation("amount", "amount can have at most two decimal places")
	case amount.GreaterThan(maxWalletAmount):
		return apperror.Validation("amount", "amount is too large")
	}
	return nil
}

func ValidateIdempotencyKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return apperror.Validation("Idempotency-Key", "Idempotency-Key header is required")
	}
	if len(key) > maxIdempotencyKeyLength {
		return apperror.Validation("Idempotency-Key", "Idempotency-Key is too long")
	}
	return nil
}
