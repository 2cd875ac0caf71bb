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
	messageColumns = `id, sender_id, receiver_id, group_id, content, is_read, created_at`

	recountUnreadSQL = `
		UPDATE profiles SET unread_messages = (
			SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND NOT is_read
		), updated_at = now()
		WHERE user_id = $1`

	isMemberSQL = `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`

	contactsSQL = `
		WITH pair AS (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS counterpart,
				content, created_at, (receiver_id = $1 AND NOT is_read) AS unread
			FROM messages
			WHERE group_id IS NULL AND (sender_id = $1 OR receiver_id = $1)
		), last AS (
			SELECT DISTINCT ON (counterpart) counterpart, content, created_at
			FROM pair
			ORDER BY counterpart, created_at DESC
		), unread AS (
			SELECT counterpart, COUNT(*) FILTER (WHERE unread) AS unread_count
			FROM pair
			GROUP BY counterpart
		)
		SELECT p.user_id, p.full_name, p.avatar_url,
			last.content AS last_message, last.created_at AS last_message_time, unread.unread_count
		FROM last
		JOIN unread USING (counterpart)
		JOIN profiles p ON p.user_id = last.counterpart
		WHERE $2 = '' OR p.full_name ILIKE '%' || $2 || '%'
		ORDER BY last.created_at DESC`
)

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Send stores a direct or group message. Group messages require the sender to
// be a member; direct messages refresh the receiver's unread counter.
func (r *MessageRepository) Send(ctx context.Context, msg models.Message) (*models.Message, error) {
	var stored models.Message
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if msg.GroupID != nil {
			var member bool
			if err := tx.GetContext(ctx, &member, isMemberSQL, *msg.GroupID, msg.SenderID); err != nil {
				return fmt.Errorf("check membership: %w", err)
			}
			if !member {
				return apperror.Forbidden("not a member of this group")
			}
		}

		if err := tx.GetContext(ctx, &stored, `
			INSERT INTO messages (id, sender_id, receiver_id, group_id, content)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+messageColumns,
			uuid.NewString(), msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Content,
		); err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("receiver")
			}
			return fmt.Errorf("insert message: %w", err)
		}

		if msg.ReceiverID != nil {
			if _, err := tx.ExecContext(ctx, recountUnreadSQL, *msg.ReceiverID); err != nil {
				return fmt.Errorf("recount unread: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *MessageRepository) Contacts(ctx context.Context, userID, search string) ([]models.Contact, error) {
	contacts := []models.Contact{}
	if err := r.db.SelectContext(ctx, &contacts, contactsSQL, userID, search); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Conversation returns the direct messages between two users, newest first.
func (r *MessageRepository) Conversation(ctx context.Context, userID, otherID string, limit int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT `+messageColumns+` FROM messages
		WHERE group_id IS NULL
			AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		ORDER BY created_at DESC
		LIMIT $3`,
		userID, otherID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return msgs, nil
}

// MarkRead marks a message read. Only its receiver may do so.
func (r *MessageRepository) MarkRead(ctx context.Context, userID, messageID string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE messages SET is_read = TRUE WHERE id = $1 AND receiver_id = $2`, messageID, userID)
		if err != nil {
			return fmt.Errorf("mark message read: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, messageID); err != nil {
				return fmt.Errorf("check message: %w", err)
			}
			if exists {
				return apperror.Forbidden("only the receiver can mark a message read")
			}
			return apperror.NotFound("message")
		}
		if _, err := tx.ExecContext(ctx, recountUnreadSQL, userID); err != nil {
			return fmt.Errorf("recount unread: %w", err)
		}
		return nil
	})
}

// CreateGroup creates a group with its creator as a member.
func (r *MessageRepository) CreateGroup(ctx context.Context, name, createdBy string, memberIDs []string) (*models.MessageGroup, error) {
	group := models.MessageGroup{ID: uuid.NewString(), Name: name, CreatedBy: createdBy}
	members := append([]string{createdBy}, memberIDs...)

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO message_groups (id, name, created_by) VALUES ($1, $2, $3)
			RETURNING created_at`,
			group.ID, name, createdBy,
		).Scan(&group.CreatedAt); err != nil {
			return fmt.Errorf("insert group: %w", err)
		}

		seen := make(map[string]bool, len(members))
		for _, id := range members {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
				ON CONFLICT (group_id, user_id) DO NOTHING`,
				group.ID, id,
			); err != nil {
				if isForeignKeyViolation(err) {
					return apperror.Validation("member_ids", "unknown user "+id)
				}
				return fmt.Errorf("insert group member: %w", err)
			}
			group.MemberIDs = append(group.MemberIDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *MessageRepository) Members(ctx context.Context, groupID string) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY joined_at`, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return ids, nil
}

// GroupMessages lists a group's messages for one of its members.
func (r *MessageRepository) GroupMessages(ctx context.Context, userID, groupID string, limit int) ([]models.Message, error) {
	var member bool
	if err := r.db.GetContext(ctx, &member, isMemberSQL, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("group")
		}
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return nil, apperror.Forbidden("not a member of this group")
	}

	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT `+messageColumns+` FROM messages
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		groupID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	return msgs, nil
}
