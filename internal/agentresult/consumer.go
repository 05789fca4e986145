package agentresult

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	inats "github.com/finassist-platform/finassist/internal/nats"
)

// Consumer listens on the agent result subject and persists one audit row
// per event.
type Consumer struct {
	repo        Repository
	consumerMgr *inats.ConsumerManager
}

func NewConsumer(repo Repository, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamResults, "result-persister", inats.SubjectAgentResult)
	if err != nil {
		return err
	}

	slog.Info("agent result consumer started", "consumer", "result-persister")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("result consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event inats.AgentResultEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		slog.Error("result consumer: unmarshaling event", "error", err)
		_ = msg.Nak()
		return
	}

	result := &AgentResult{
		ID:        uuid.New(),
		OwnerID:   event.OwnerID,
		AgentName: event.AgentName,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}

	if err := c.repo.Insert(ctx, result); err != nil {
		slog.Error("result consumer: persisting agent result", "error", err, "agent", event.AgentName)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	slog.Debug("result consumer: persisted result",
		"agent", event.AgentName,
		"owner", event.OwnerID,
	)
}
