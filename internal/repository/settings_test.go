package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/quickfix/internal/models"
)

var settingsRowColumns = []string{
	"user_id", "language", "dark_mode", "email_notifications", "push_notifications", "marketing_emails", "updated_at",
}

func TestSettingsGetFallsBackToDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery("FROM user_settings WHERE user_id").
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)

	s, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings("user-1"), *s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsSaveUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery("INSERT INTO user_settings").
		WithArgs("user-1", "en", false, true, false, true).
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("user-1", "en", false, true, false, true, time.Now()))

	s, err := repo.Save(context.Background(), models.Settings{
		UserID:             "user-1",
		Language:           "en",
		EmailNotifications: true,
		MarketingEmails:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "en", s.Language)
	assert.False(t, s.DarkMode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAdvertisementNone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectQuery("FROM advertisements").WillReturnError(sql.ErrNoRows)

	ad, err := repo.LatestAdvertisement(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ad)
}

func TestSpecialistsFilterArgs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectQuery("FROM specialists").
		WithArgs("pipe", "plumber", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	list, err := repo.Specialists(context.Background(), models.SpecialistFilter{
		Search:     "pipe",
		Profession: "plumber",
		Limit:      5,
	})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}
