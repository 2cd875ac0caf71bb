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

const (
	conversationColumns = `id, user_id, title, preview, resolved, created_at, updated_at`
	aiMessageColumns    = `id, conversation_id, user_id, content, is_from_ai, image_path, created_at`
)

type AIRepository struct {
	db *sqlx.DB
}

func NewAIRepository(db *sqlx.DB) *AIRepository {
	return &AIRepository{db: db}
}

func (r *AIRepository) CreateConversation(ctx context.Context, userID, title string) (*models.AIConversation, error) {
	var conv models.AIConversation
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &conv, `
			INSERT INTO ai_conversations (id, user_id, title)
			VALUES ($1, $2, $3)
			RETURNING `+conversationColumns,
			uuid.NewString(), userID, title,
		); err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET ai_conversations_count = ai_conversations_count + 1, updated_at = now()
			WHERE user_id = $1`, userID,
		); err != nil {
			return fmt.Errorf("increment conversation counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *AIRepository) ListConversations(ctx context.Context, userID string, f models.ConversationFilter) ([]models.AIConversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM ai_conversations WHERE user_id = $1`
	args := []any{userID}
	if f.Resolved != nil {
		args = append(args, *f.Resolved)
		query += fmt.Sprintf(" AND resolved = $%d", len(args))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", len(args))

	convs := []models.AIConversation{}
	if err := r.db.SelectContext(ctx, &convs, query, args...); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// GetConversation only returns conversations owned by userID.
func (r *AIRepository) GetConversation(ctx context.Context, userID, id string) (*models.AIConversation, error) {
	var conv models.AIConversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM ai_conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("conversation")
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// Messages returns the most recent messages in chronological order.
func (r *AIRepository) Messages(ctx context.Context, conversationID string, limit int) ([]models.AIMessage, error) {
	msgs := []models.AIMessage{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT `+aiMessageColumns+` FROM ai_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent ORDER BY created_at ASC`,
		conversationID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list ai messages: %w", err)
	}
	return msgs, nil
}

// Message returns one message of a conversation owned by userID.
func (r *AIRepository) Message(ctx context.Context, userID, conversationID, id string) (*models.AIMessage, error) {
	var msg models.AIMessage
	err := r.db.GetContext(ctx, &msg, `
		SELECT `+aiMessageColumns+` FROM ai_messages
		WHERE id = $1 AND conversation_id = $2
			AND EXISTS (SELECT 1 FROM ai_conversations WHERE id = $2 AND user_id = $3)`,
		id, conversationID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("message")
	}
	if err != nil {
		return nil, fmt.Errorf("get ai message: %w", err)
	}
	return &msg, nil
}

// AddMessage stores a message and refreshes the conversation preview.
func (r *AIRepository) AddMessage(ctx context.Context, msg models.AIMessage) (*models.AIMessage, error) {
	var stored models.AIMessage
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &stored, `
			INSERT INTO ai_messages (id, conversation_id, user_id, content, is_from_ai, image_path)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+aiMessageColumns,
			uuid.NewString(), msg.ConversationID, msg.UserID, msg.Content, msg.IsFromAI, msg.ImagePath,
		); err != nil {
			return fmt.Errorf("insert ai message: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE ai_conversations SET preview = $2, updated_at = now() WHERE id = $1`,
			msg.ConversationID, models.Preview(msg.Content, models.PreviewLength),
		); err != nil {
			return fmt.Errorf("update conversation preview: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *AIRepository) SetResolved(ctx context.Context, userID, id string, resolved bool) (*models.AIConversation, error) {
	var conv models.AIConversation
	err := r.db.GetContext(ctx, &conv, `
		UPDATE ai_conversations SET resolved = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+conversationColumns,
		id, userID, resolved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("conversation")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	return &conv, nil
}
