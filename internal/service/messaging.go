package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
)

const messagePageSize = 100

type MessagingService struct {
	messages MessageStore
	profiles ProfileStore
	emitter
}

func NewMessagingService(messages MessageStore, profiles ProfileStore, pub events.Publisher, m *metrics.Metrics) *MessagingService {
	return &MessagingService{messages: messages, profiles: profiles, emitter: emitter{pub: pub, metrics: m}}
}

// Send delivers a direct or group message. Every recipient except the
// sender gets a message.sent event.
func (s *MessagingService) Send(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("content", "message content is required")
	}
	hasReceiver, hasGroup := req.ReceiverID != "", req.GroupID != ""
	if hasReceiver == hasGroup {
		return nil, apperror.Validation("receiver_id", "exactly one of receiver_id or group_id is required")
	}

	msg := models.Message{SenderID: senderID, Content: content}
	if hasReceiver {
		if err := uuid.Validate(req.ReceiverID); err != nil {
			return nil, apperror.Validation("receiver_id", "receiver_id must be a valid id")
		}
		if req.ReceiverID == senderID {
			return nil, apperror.Validation("receiver_id", "cannot send a message to yourself")
		}
		msg.ReceiverID = &req.ReceiverID
	} else {
		if err := uuid.Validate(req.GroupID); err != nil {
			return nil, apperror.Validation("group_id", "group_id must be a valid id")
		}
		msg.GroupID = &req.GroupID
	}

	sent, err := s.messages.Send(ctx, msg)
	if err != nil {
		return nil, err
	}

	recipients := []string{req.ReceiverID}
	if hasGroup {
		members, err := s.messages.Members(ctx, req.GroupID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("group_id", req.GroupID).Msg("failed to load group members")
			return sent, nil
		}
		recipients = recipients[:0]
		for _, id := range members {
			if id != senderID {
				recipients = append(recipients, id)
			}
		}
	}

	name, err := s.profiles.DisplayName(ctx, senderID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load sender name")
	}
	payload := events.MessagePayload{
		MessageID:  sent.ID,
		SenderID:   senderID,
		SenderName: name,
		GroupID:    sent.GroupID,
		Preview:    models.Preview(content, models.PreviewLength),
	}
	for _, id := range recipients {
		s.emit(ctx, events.MessageSent, id, payload)
	}
	return sent, nil
}

func (s *MessagingService) Contacts(ctx context.Context, userID, search string) ([]models.Contact, error) {
	return s.messages.Contacts(ctx, userID, strings.TrimSpace(search))
}

func (s *MessagingService) Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	if err := uuid.Validate(otherID); err != nil {
		return nil, apperror.Validation("user_id", "user_id must be a valid id")
	}
	return s.messages.Conversation(ctx, userID, otherID, messagePageSize)
}

func (s *MessagingService) MarkRead(ctx context.Context, userID, messageID string) error {
	return s.messages.MarkRead(ctx, userID, messageID)
}

func (s *MessagingService) CreateGroup(ctx context.Context, userID string, req models.NewGroupRequest) (*models.MessageGroup, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name", "group name is required")
	}
	if len(req.MemberIDs) == 0 {
		return nil, apperror.Validation("member_ids", "at least one member is required")
	}
	for _, id := range req.MemberIDs {
		if err := uuid.Validate(id); err != nil {
			return nil, apperror.Validation("member_ids", "member ids must be valid ids")
		}
	}
	return s.messages.CreateGroup(ctx, name, userID, req.MemberIDs)
}

func (s *MessagingService) GroupMessages(ctx context.Context, userID, groupID string) ([]models.Message, error) {
	return s.messages.GroupMessages(ctx, userID, groupID, messagePageSize)
}
