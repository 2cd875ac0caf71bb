package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/quickfix/internal/models"
)

const settingsColumns = `user_id, language, dark_mode, email_notifications, push_notifications, marketing_emails, updated_at`

type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get falls back to the defaults for users without a stored row.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.Settings, error) {
	var s models.Settings
	err := r.db.GetContext(ctx, &s, `SELECT `+settingsColumns+` FROM user_settings WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := models.DefaultSettings(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s models.Settings) (*models.Settings, error) {
	var saved models.Settings
	err := r.db.GetContext(ctx, &saved, `
		INSERT INTO user_settings (user_id, language, dark_mode, email_notifications, push_notifications, marketing_emails)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			language = EXCLUDED.language,
			dark_mode = EXCLUDED.dark_mode,
			email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			marketing_emails = EXCLUDED.marketing_emails,
			updated_at = now()
		RETURNING `+settingsColumns,
		s.UserID, s.Language, s.DarkMode, s.EmailNotifications, s.PushNotifications, s.MarketingEmails,
	)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return &saved, nil
}
