package chat

import "time"

// MessageID identifier type
type MessageID string

// Message is one entry of a chat session. Text is plaintext in memory;
// the chat service seals it before it reaches a Repository.
type Message struct {
	ID                MessageID         `json:"id"`
	OwnerID           string            `json:"owner_id"`
	SessionID         string            `json:"session_id"`
	Text              string            `json:"message_text"`
	IsUserMessage     bool              `json:"is_user_message"`
	CreatedAt         time.Time         `json:"timestamp"`
	Insights          []string          `json:"insights,omitempty"`
	Recommendations   []string          `json:"recommendations,omitempty"`
	ReformulatedQuery string            `json:"reformulated_query,omitempty"`
	Metrics           map[string]string `json:"metrics,omitempty"`
}
