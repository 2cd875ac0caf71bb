package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

const taskColumns = `id, user_id, checkout_id, title, problem, expertise, location, price,
	specialist_id, status, created_at, updated_at`

type TaskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Submit pays for and records a professional help request in one
// transaction. A replayed payment returns the task created the first time.
func (r *TaskRepository) Submit(ctx context.Context, sub models.TaskSubmission) (*models.TaskSubmissionResult, error) {
	var result models.TaskSubmissionResult
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		payment, err := applyMutation(ctx, tx, sub.Checkout)
		if err != nil {
			return err
		}
		result.Checkout = *payment

		if payment.Replayed {
			if err := tx.GetContext(ctx, &result.Task,
				`SELECT `+taskColumns+` FROM professional_tasks WHERE checkout_id = $1`, payment.Checkout.ID,
			); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperror.Conflict("idempotency key was already used for a different request")
				}
				return fmt.Errorf("load replayed task: %w", err)
			}
			return nil
		}

		task := sub.Task
		task.ID = uuid.NewString()
		task.CheckoutID = payment.Checkout.ID
		task.Status = models.TaskScheduled
		if err := tx.GetContext(ctx, &result.Task, `
			INSERT INTO professional_tasks (id, user_id, checkout_id, title, problem, expertise, location, price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+taskColumns,
			task.ID, task.UserID, task.CheckoutID, task.Title, task.Problem,
			task.Expertise, task.Location, task.Price, task.Status,
		); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET specialist_tasks_count = specialist_tasks_count + 1, updated_at = now()
			WHERE user_id = $1`, task.UserID,
		); err != nil {
			return fmt.Errorf("increment task counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *TaskRepository) List(ctx context.Context, userID string, f models.TaskFilter) ([]models.ProfessionalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM professional_tasks WHERE user_id = $1`
	args := []any{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	tasks := []models.ProfessionalTask{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*models.ProfessionalTask, error) {
	var task models.ProfessionalTask
	err := r.db.GetContext(ctx, &task,
		`SELECT `+taskColumns+` FROM professional_tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}
