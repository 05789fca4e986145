package agentresult

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/nats"
)

// Sink accepts one audit record per agent invocation. Record is fire-and
// forget from the engines' perspective: a sink failure is logged by the
// implementation but must not fail the user-facing call that produced the
// result.
type Sink interface {
	Record(ctx context.Context, ownerID uuid.UUID, agentName string, payload any)
}

// NATSSink publishes audit events to JetStream; a durable consumer persists
// them to the relational store out of band.
type NATSSink struct {
	publisher *nats.Publisher
	logger    *slog.Logger
}

func NewNATSSink(publisher *nats.Publisher, logger *slog.Logger) *NATSSink {
	return &NATSSink{publisher: publisher, logger: logger}
}

func (s *NATSSink) Record(ctx context.Context, ownerID uuid.UUID, agentName string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshaling agent result payload",
			"agent", agentName, "owner_id", ownerID, "error", err)
		return
	}

	event := nats.AgentResultEvent{
		OwnerID:   ownerID,
		AgentName: agentName,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishAgentResult(ctx, event); err != nil {
		s.logger.Error("publishing agent result",
			"agent", agentName, "owner_id", ownerID, "error", err)
	}
}

// NopSink discards records. Used when NATS is disabled in tests.
type NopSink struct{}

func (NopSink) Record(context.Context, uuid.UUID, string, any) {}

var _ Sink = (*NATSSink)(nil)
var _ Sink = NopSink{}
