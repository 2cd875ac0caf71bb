package service

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/assistant"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/internal/storage"
)

const (
	defaultConversationTitle = "New conversation"
	conversationPageSize     = 200
	imageOnlyPrompt          = "What do you see in this photo and how can I fix it?"
)

type ChatService struct {
	chats        ChatStore
	completer    assistant.Completer
	images       ImageStore
	historyLimit int
	metrics      *metrics.Metrics
	emitter
}

func NewChatService(chats ChatStore, completer assistant.Completer, images ImageStore, historyLimit int, pub events.Publisher, m *metrics.Metrics) *ChatService {
	return &ChatService{
		chats:        chats,
		completer:    completer,
		images:       images,
		historyLimit: historyLimit,
		metrics:      m,
		emitter:      emitter{pub: pub, metrics: m},
	}
}

func (s *ChatService) Create(ctx context.Context, userID, title string) (*models.AIConversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultConversationTitle
	}
	return s.chats.CreateConversation(ctx, userID, title)
}

func (s *ChatService) List(ctx context.Context, userID string, limit int) ([]models.AIConversation, error) {
	return s.chats.ListConversations(ctx, userID, models.ConversationFilter{Limit: limit})
}

func (s *ChatService) Get(ctx context.Context, userID, id string) (*models.ConversationDetail, error) {
	conv, err := s.chats.GetConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chats.Messages(ctx, conv.ID, conversationPageSize)
	if err != nil {
		return nil, err
	}
	return &models.ConversationDetail{Conversation: *conv, Messages: msgs}, nil
}

func (s *ChatService) Resolve(ctx context.Context, userID, id string, resolved bool) (*models.AIConversation, error) {
	return s.chats.SetResolved(ctx, userID, id, resolved)
}

// Image returns the photo attached to one of the user's messages.
func (s *ChatService) Image(ctx context.Context, userID, conversationID, messageID string) ([]byte, error) {
	msg, err := s.chats.Message(ctx, userID, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ImagePath == nil {
		return nil, apperror.NotFound("image")
	}
	data, err := s.images.Read(ctx, *msg.ImagePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.NotFound("image")
	}
	if err != nil {
		return nil, apperror.Internal("failed to read image", err)
	}
	return data, nil
}

// Send stores the user's message, asks the assistant and stores its reply.
// When the assistant fails the user's message stays and no reply is written.
func (s *ChatService) Send(ctx context.Context, userID, conversationID string, req models.SendAIMessageRequest) (*models.AIExchange, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && req.Image == "" {
		return nil, apperror.Validation("content", "message or image is required")
	}

	conv, err := s.chats.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	var img *assistant.Image
	var imagePath *string
	if req.Image != "" {
		data, err := storage.DecodeImage(req.Image)
		if err != nil {
			return nil, err
		}
		path, mime, err := s.images.StoreImage(ctx, data)
		if err != nil {
			return nil, err
		}
		img = &assistant.Image{MIMEType: mime, Data: data}
		imagePath = &path
	}

	history, err := s.chats.Messages(ctx, conv.ID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.chats.AddMessage(ctx, models.AIMessage{
		ConversationID: conv.ID,
		UserID:         userID,
		Content:        content,
		ImagePath:      imagePath,
	})
	if err != nil {
		if imagePath != nil {
			_ = s.images.Delete(ctx, *imagePath)
		}
		return nil, err
	}

	prompt := assistant.Prompt{History: turns(history), Text: content, Image: img}
	if prompt.Text == "" {
		prompt.Text = imageOnlyPrompt
	}

	log := zerolog.Ctx(ctx).With().Str("conversation_id", conv.ID).Logger()
	start := time.Now()
	reply, err := s.completer.Complete(ctx, prompt)
	s.metrics.ObserveCompletion(start, err)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("assistant completion failed")
		switch apperror.KindOf(err) {
		case apperror.KindRateLimited, apperror.KindUpstream:
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.Upstream("assistant", err)
	}

	aiMsg, err := s.chats.AddMessage(ctx, models.AIMessage{
		ConversationID: conv.ID,
		UserID:         userID,
		Content:        reply,
		IsFromAI:       true,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("assistant replied")

	s.emit(ctx, events.AIReplied, userID, events.AIRepliedPayload{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Preview:        models.Preview(reply, models.PreviewLength),
	})
	return &models.AIExchange{UserMessage: *userMsg, Reply: *aiMsg}, nil
}

func turns(msgs []models.AIMessage) []assistant.Turn {
	out := make([]assistant.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, assistant.Turn{FromAI: m.IsFromAI, Text: m.Content})
	}
	return out
}
