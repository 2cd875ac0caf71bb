package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

const profileColumns = `id, user_id, full_name, email, avatar_url, accepted_terms, balance,
	unread_messages, ai_conversations_count, specialist_tasks_count, created_at, updated_at`

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Ensure creates the profile and its default settings unless they exist, then
// returns the stored profile. Concurrent calls for the same user create one
// row thanks to the unique user_id.
func (r *ProfileRepository) Ensure(ctx context.Context, p models.NewProfile) (*models.Profile, bool, error) {
	var (
		profile models.Profile
		created bool
	)
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (user_id, full_name, email, accepted_terms)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO NOTHING`,
			p.UserID, p.FullName, p.Email, p.AcceptedTerms,
		)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			created = true
		}

		defaults := models.DefaultSettings(p.UserID)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_settings (user_id, language, dark_mode, email_notifications, push_notifications, marketing_emails)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) DO NOTHING`,
			defaults.UserID, defaults.Language, defaults.DarkMode,
			defaults.EmailNotifications, defaults.PushNotifications, defaults.MarketingEmails,
		); err != nil {
			return fmt.Errorf("insert default settings: %w", err)
		}

		if err := tx.GetContext(ctx, &profile,
			`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, p.UserID,
		); err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &profile, created, nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("profile")
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, userID string, u models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `
		UPDATE profiles SET
			full_name = COALESCE($2, full_name),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = now()
		WHERE user_id = $1
		RETURNING `+profileColumns,
		userID, u.FullName, u.AvatarURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("profile")
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &profile, nil
}

// DisplayName returns the full name of a user, empty when unknown.
func (r *ProfileRepository) DisplayName(ctx context.Context, userID string) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, `SELECT full_name FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get display name: %w", err)
	}
	return name, nil
}
