// Package agentresult records one append-only audit row per agent
// invocation. Rows are never read back by the engines; they exist for audit
// and offline inspection only.
package agentresult

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Agent names recorded in the audit trail.
const (
	AgentChat     = "Chat"
	AgentInsights = "Insights"
	AgentForecast = "Forecast"
	AgentReminder = "Reminder"
)

// AgentResult is one persisted invocation record. Immutable once written.
type AgentResult struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	AgentName string          `json:"agent_name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
