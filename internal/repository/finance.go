package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/illegalcall/quickfix/internal/models"
)

type FinanceRepository struct {
	db *sqlx.DB
}

func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

func (r *FinanceRepository) Records(ctx context.Context, userID string, limit int) ([]models.FinancialRecord, error) {
	records := []models.FinancialRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, user_id, amount, transaction_type, description, checkout_id, date, created_at
		FROM financial_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list financial records: %w", err)
	}
	return records, nil
}

// MonthlyTotals returns twelve points for the year, months without records
// reported as zero.
func (r *FinanceRepository) MonthlyTotals(ctx context.Context, userID string, year int) ([]models.ChartPoint, error) {
	rows := []models.ChartPoint{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT EXTRACT(MONTH FROM date)::int AS month, COALESCE(SUM(amount), 0) AS amount
		FROM financial_records
		WHERE user_id = $1 AND EXTRACT(YEAR FROM date)::int = $2
		GROUP BY 1
		ORDER BY 1`,
		userID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}

	points := make([]models.ChartPoint, 12)
	for i := range points {
		points[i] = models.ChartPoint{Month: i + 1, Amount: decimal.Zero}
	}
	for _, row := range rows {
		if row.Month >= 1 && row.Month <= 12 {
			points[row.Month-1].Amount = row.Amount
		}
	}
	return points, nil
}
