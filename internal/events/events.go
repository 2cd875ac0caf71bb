package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	CheckoutCompleted Type = "wallet.checkout_completed"
	ToppedUp          Type = "wallet.topped_up"
	TaskCreated       Type = "task.created"
	AIReplied         Type = "ai.replied"
	MessageSent       Type = "message.sent"
)

// Envelope is the JSON record written to the events topic.
type Envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	UserID     string          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(typ Type, userID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Decode parses an envelope and checks the fields every handler relies on.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" || env.UserID == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type or user_id")
	}
	return env, nil
}

type WalletPayload struct {
	CheckoutID  string          `json:"checkout_id"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Description string          `json:"description"`
}

type TaskPayload struct {
	TaskID    string          `json:"task_id"`
	Title     string          `json:"title"`
	Expertise string          `json:"expertise"`
	Price     decimal.Decimal `json:"price"`
}

type AIRepliedPayload struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	Preview        string `json:"preview"`
}

type MessagePayload struct {
	MessageID  string  `json:"message_id"`
	SenderID   string  `json:"sender_id"`
	SenderName string  `json:"sender_name"`
	GroupID    *string `json:"group_id,omitempty"`
	Preview    string  `json:"preview"`
}

// Publisher emits domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, typ Type, userID string, payload any) error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish keys messages by user id so one user's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, typ Type, userID string, payload any) error {
	env, err := NewEnvelope(typ, userID, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(typ)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}
	return nil
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Type, string, any) error { return nil }
