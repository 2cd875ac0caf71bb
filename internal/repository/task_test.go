package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

var taskRowColumns = []string{
	"id", "user_id", "checkout_id", "title", "problem", "expertise", "location", "price",
	"specialist_id", "status", "created_at", "updated_at",
}

func taskSubmission() models.TaskSubmission {
	price := decimal.NewFromInt(5000)
	return models.TaskSubmission{
		Task: models.ProfessionalTask{
			UserID:    "user-1",
			Title:     "Leaking tap",
			Problem:   "The kitchen tap drips",
			Expertise: "plumbing",
			Location:  "Budapest",
			Price:     price,
		},
		Checkout: models.WalletMutation{
			UserID:         "user-1",
			IdempotencyKey: "key-1",
			Amount:         price,
			Description:    "Professional help: plumbing",
			Kind:           models.CheckoutService,
		},
	}
}

func TestTaskSubmit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO checkouts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("chk-1", now))
	mock.ExpectQuery("UPDATE profiles SET balance = balance -").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("0.00"))
	mock.ExpectExec("INSERT INTO financial_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE checkouts SET balance_after").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO professional_tasks").
		WithArgs(sqlmock.AnyArg(), "user-1", "chk-1", "Leaking tap", "The kitchen tap drips",
			"plumbing", "Budapest", sqlmock.AnyArg(), "scheduled").
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
			"task-1", "user-1", "chk-1", "Leaking tap", "The kitchen tap drips", "plumbing",
			"Budapest", "5000.00", nil, "scheduled", now, now,
		))
	mock.ExpectExec("UPDATE profiles SET specialist_tasks_count").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Submit(context.Background(), taskSubmission())
	require.NoError(t, err)
	assert.Equal(t, "task-1", res.Task.ID)
	assert.Equal(t, models.TaskScheduled, res.Task.Status)
	assert.True(t, res.Checkout.Balance.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskSubmitInsufficientBalanceWritesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO checkouts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("chk-1", time.Now()))
	mock.ExpectQuery("UPDATE profiles SET balance = balance -").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery("SELECT balance FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("4999.00"))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), taskSubmission())
	assert.ErrorIs(t, err, apperror.ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskSubmitReplayReturnsOriginalTask(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO checkouts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectQuery("FROM checkouts").
		WillReturnRows(storedCheckoutRows("5000.00", "Professional help: plumbing", "service"))
	mock.ExpectQuery("FROM professional_tasks WHERE checkout_id").
		WithArgs("chk-1").
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
			"task-1", "user-1", "chk-1", "Leaking tap", "The kitchen tap drips", "plumbing",
			"Budapest", "5000.00", nil, "scheduled", now, now,
		))
	mock.ExpectCommit()

	res, err := repo.Submit(context.Background(), taskSubmission())
	require.NoError(t, err)
	assert.True(t, res.Checkout.Replayed)
	assert.Equal(t, "task-1", res.Task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	since := time.Now().Add(-7 * 24 * time.Hour)

	mock.ExpectQuery(`FROM professional_tasks WHERE user_id = \$1 AND status = \$2 AND created_at >= \$3`).
		WithArgs("user-1", "completed", since, 5).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	tasks, err := repo.List(context.Background(), "user-1", models.TaskFilter{
		Status: models.TaskCompleted,
		Since:  &since,
		Limit:  5,
	})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
