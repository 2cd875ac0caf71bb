package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/models"
)

// ErrUnknownEvent is returned by Notify for event types without a handler.
var ErrUnknownEvent = errors.New("unknown event type")

const (
	historyAction  = "/dashboard/history"
	messagesAction = "/dashboard/messages"
)

// Notify maps an event to the notification shown to its user.
func Notify(env events.Envelope) (*models.Notification, error) {
	n := &models.Notification{UserID: env.UserID}

	switch env.Type {
	case events.CheckoutCompleted:
		var p events.WalletPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		n.Type = models.NotificationSystem
		n.Title = "Payment completed"
		n.Description = fmt.Sprintf("%s: %s HUF. New balance: %s HUF.",
			p.Description, p.Amount.StringFixed(0), p.Balance.StringFixed(0))
		n.Action = action(historyAction)

	case events.ToppedUp:
		var p events.WalletPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		n.Type = models.NotificationSystem
		n.Title = "Balance topped up"
		n.Description = fmt.Sprintf("%s HUF was added to your balance. New balance: %s HUF.",
			p.Amount.StringFixed(0), p.Balance.StringFixed(0))

	case events.TaskCreated:
		var p events.TaskPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		n.Type = models.NotificationProfessional
		n.Title = "Professional help requested"
		n.Description = fmt.Sprintf("A %s specialist has been scheduled for %q.", p.Expertise, p.Title)
		n.Action = action(historyAction)

	case events.AIReplied:
		var p events.AIRepliedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		n.Type = models.NotificationAI
		n.Title = "The AI assistant replied"
		if p.Title != "" {
			n.Title += ": " + p.Title
		}
		n.Description = p.Preview
		n.Action = action("/dashboard/ai-help?conversation=" + p.ConversationID)

	case events.MessageSent:
		var p events.MessagePayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		n.Type = models.NotificationSystem
		n.Title = "New message from " + p.SenderName
		n.Description = p.Preview
		n.Action = action(messagesAction)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	return n, nil
}

func unmarshal(env events.Envelope, dst any) error {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

func action(s string) *string { return &s }
