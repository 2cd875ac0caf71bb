package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/illegalcall/quickfix/internal/apperror"
)

func TestHistoryRoles(t *testing.T) {
	history := History([]Turn{
		{Text: "My sink is leaking"},
		{FromAI: true, Text: "Where does the water come from?"},
		{Text: "   "},
		{Text: "Under the trap"},
	})

	require.Len(t, history, 3)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("Under the trap"), history[2].Parts[0])
}

func TestPartsWithImage(t *testing.T) {
	parts := Parts(Prompt{
		Text:  "What is this?",
		Image: &Image{MIMEType: "image/png", Data: []byte{0x89, 0x50}},
	})

	require.Len(t, parts, 2)
	assert.Equal(t, genai.Text("What is this?"), parts[0])
	blob, ok := parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob.MIMEType)
}

func TestPartsImageOnly(t *testing.T) {
	parts := Parts(Prompt{Image: &Image{MIMEType: "image/jpeg", Data: []byte{1}}})
	require.Len(t, parts, 1)
	_, ok := parts[0].(genai.Blob)
	assert.True(t, ok)
}

func TestReplyText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Close the valve. "), genai.Text("Then dry the area.")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "Close the valve. Then dry the area.", ReplyText(resp))
	assert.Equal(t, "", ReplyText(nil))
	assert.Equal(t, "", ReplyText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestClassify(t *testing.T) {
	quota := fmt.Errorf("send: %w", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"})
	assert.ErrorIs(t, Classify(quota), apperror.ErrRateLimited)

	outage := &googleapi.Error{Code: http.StatusServiceUnavailable}
	assert.ErrorIs(t, Classify(outage), apperror.ErrUpstream)

	assert.ErrorIs(t, Classify(errors.New("dial tcp: timeout")), apperror.ErrUpstream)
	assert.ErrorIs(t, Classify(context.Canceled), context.Canceled)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
