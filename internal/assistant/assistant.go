package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/illegalcall/quickfix/internal/apperror"
)

const service = "AI assistant"

// SystemPrompt frames every conversation.
const SystemPrompt = `You are QuickFix, a helpful home-repair assistant. ` +
	`Help the user diagnose and fix household problems step by step, ` +
	`point out safety risks, and recommend calling a professional when a repair is dangerous. ` +
	`If the user sends a photo, describe what you see before giving advice. ` +
	`Always answer in the language the user writes in.`

// Turn is one previous message of the conversation.
type Turn struct {
	FromAI bool
	Text   string
}

type Image struct {
	MIMEType string
	Data     []byte
}

type Prompt struct {
	History []Turn
	Text    string
	Image   *Image
}

// Completer produces the assistant's reply to a prompt.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemPrompt)}}
	model.SetTemperature(g.temperature)

	cs := model.StartChat()
	cs.History = History(p.History)

	resp, err := cs.SendMessage(ctx, Parts(p)...)
	if err != nil {
		return "", Classify(err)
	}

	reply := ReplyText(resp)
	if reply == "" {
		return "", apperror.Upstream(service, errors.New("empty response"))
	}
	return reply, nil
}

// History converts previous turns to Gemini content with user and model
// roles. Empty turns are skipped.
func History(turns []Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := "user"
		if t.FromAI {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}
	return history
}

// Parts builds the new user turn, text first then the inline image.
func Parts(p Prompt) []genai.Part {
	var parts []genai.Part
	if strings.TrimSpace(p.Text) != "" {
		parts = append(parts, genai.Text(p.Text))
	}
	if p.Image != nil && len(p.Image.Data) > 0 {
		parts = append(parts, genai.Blob{MIMEType: p.Image.MIMEType, Data: p.Image.Data})
	}
	return parts
}

func ReplyText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// Classify maps quota errors to RateLimited and everything else to Upstream.
func Classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusTooManyRequests {
		return apperror.RateLimited("AI assistant quota exceeded, try again later", err)
	}

	var aErr *apierror.APIError
	if errors.As(err, &aErr) {
		if aErr.HTTPCode() == http.StatusTooManyRequests || aErr.GRPCStatus().Code() == codes.ResourceExhausted {
			return apperror.RateLimited("AI assistant quota exceeded, try again later", err)
		}
	}
	return apperror.Upstream(service, err)
}
