// Package chat runs the question-answer protocol: similarity cache first,
// then quota reservation, context assembly and the external model call.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer sources.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// Log is one persisted conversation turn.
type Log struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AskResult is the outcome of one answered question.
type AskResult struct {
	Answer     string  `json:"answer"`
	Source     string  `json:"source"`
	TokenCount int     `json:"token_count"`
	Similarity float64 `json:"similarity,omitempty"`
}
