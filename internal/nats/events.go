package nats

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamResults = "FINASSIST_RESULTS"
)

// Subject constants.
const (
	SubjectAgentResult = "finassist.results.agent"
)

// AgentResultEvent is published after every agent invocation for append-only
// audit persistence. Payload holds the agent's full structured output.
type AgentResultEvent struct {
	OwnerID   uuid.UUID       `json:"owner_id"`
	AgentName string          `json:"agent_name"` // Chat, Insights, Forecast, Reminder
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
