package models

import "time"

type AIConversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Preview   string    `json:"preview" db:"preview"`
	Resolved  bool      `json:"resolved" db:"resolved"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AIMessage struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Content        string    `json:"content" db:"content"`
	IsFromAI       bool      `json:"is_from_ai" db:"is_from_ai"`
	ImagePath      *string   `json:"image_path,omitempty" db:"image_path"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type ConversationDetail struct {
	Conversation AIConversation `json:"conversation"`
	Messages     []AIMessage    `json:"messages"`
}

type NewConversationRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

// SendAIMessageRequest needs content, an image or both. Image is base64 or a
// data URL.
type SendAIMessageRequest struct {
	Content string `json:"content" validate:"required_without=Image,max=8000"`
	Image   string `json:"image" validate:"required_without=Content"`
}

type AIExchange struct {
	UserMessage AIMessage `json:"user_message"`
	Reply       AIMessage `json:"reply"`
}

type ConversationFilter struct {
	// Resolved is nil for both resolved and open conversations.
	Resolved *bool
	Since    *time.Time
	Limit    int
}

// PreviewLength bounds the previews stored on conversations and carried by events.
const PreviewLength = 140

// Preview truncates s to at most n runes.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
