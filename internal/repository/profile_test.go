package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

var profileRowColumns = []string{
	"id", "user_id", "full_name", "email", "avatar_url", "accepted_terms", "balance",
	"unread_messages", "ai_conversations_count", "specialist_tasks_count", "created_at", "updated_at",
}

func profileRow(balance string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(profileRowColumns).
		AddRow("p-1", "user-1", "Kiss Anna", "anna@example.com", nil, true, balance, 0, 0, 0, now, now)
}

func TestProfileEnsure(t *testing.T) {
	tests := []struct {
		name        string
		inserted    int64
		wantCreated bool
	}{
		{name: "first sign-in creates", inserted: 1, wantCreated: true},
		{name: "existing profile is kept", inserted: 0, wantCreated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewProfileRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec("INSERT INTO profiles").
				WithArgs("user-1", "Kiss Anna", "anna@example.com", true).
				WillReturnResult(sqlmock.NewResult(0, tt.inserted))
			mock.ExpectExec("INSERT INTO user_settings").
				WithArgs("user-1", "hu", true, true, true, false).
				WillReturnResult(sqlmock.NewResult(0, tt.inserted))
			mock.ExpectQuery("FROM profiles WHERE user_id").
				WithArgs("user-1").
				WillReturnRows(profileRow("0.00"))
			mock.ExpectCommit()

			profile, created, err := repo.Ensure(context.Background(), models.NewProfile{
				UserID:        "user-1",
				Email:         "anna@example.com",
				FullName:      "Kiss Anna",
				AcceptedTerms: true,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, "user-1", profile.UserID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProfileGetByUserIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectQuery("FROM profiles WHERE user_id").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProfileUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)
	name := "Kiss Anna"

	mock.ExpectQuery("UPDATE profiles SET").
		WithArgs("user-1", &name, nil).
		WillReturnRows(profileRow("2500.00"))

	profile, err := repo.Update(context.Background(), "user-1", models.ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "2500", profile.Balance.String())
}
