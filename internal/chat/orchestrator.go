package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/agentresult"
	"github.com/finassist-platform/finassist/internal/cache"
	"github.com/finassist-platform/finassist/internal/finctx"
	"github.com/finassist-platform/finassist/internal/llm"
	"github.com/finassist-platform/finassist/internal/metrics"
	"github.com/finassist-platform/finassist/internal/quota"
)

const systemPrompt = `You are a personal finance assistant. Answer using only
the financial snapshot provided below. Be concise and specific: cite exact
amounts from the snapshot, and say so plainly when the data cannot answer the
question. Never invent transactions, balances or dates.`

// Orchestrator answers questions: cached answers are served without
// consuming quota; live answers reserve quota, rebuild the financial
// context, call the model, then persist the exchange.
type Orchestrator struct {
	limiter      *quota.Limiter
	cache        *cache.Store
	aggregator   *finctx.Aggregator
	completer    llm.Completer
	logs         LogRepository
	sink         agentresult.Sink
	historyTurns int
	logger       *slog.Logger
}

func NewOrchestrator(
	limiter *quota.Limiter,
	cacheStore *cache.Store,
	aggregator *finctx.Aggregator,
	completer llm.Completer,
	logs LogRepository,
	sink agentresult.Sink,
	historyTurns int,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		limiter:      limiter,
		cache:        cacheStore,
		aggregator:   aggregator,
		completer:    completer,
		logs:         logs,
		sink:         sink,
		historyTurns: historyTurns,
		logger:       logger,
	}
}

// Ask answers one question for the owner. Cache hits return immediately and
// never touch the rate limiter or the external service. On the live path
// nothing is cached or logged unless the model call fully succeeds.
func (o *Orchestrator) Ask(ctx context.Context, ownerID uuid.UUID, question string) (*AskResult, error) {
	now := time.Now().UTC()

	entry, score, err := o.cache.Lookup(ctx, ownerID, question)
	if err != nil {
		// A broken cache must not take down chat; fall through to the live path
		o.logger.Warn("cache lookup failed", "owner_id", ownerID, "error", err)
	}
	if entry != nil {
		metrics.CacheHitsTotal.Inc()
		metrics.ChatRequestsTotal.WithLabelValues("cache").Inc()

		// Keep the visible history coherent with what the user was shown
		if err := o.logs.InsertExchange(ctx, ownerID, question, entry.Response, now); err != nil {
			o.logger.Warn("logging cached exchange failed", "owner_id", ownerID, "error", err)
		}

		return &AskResult{
			Answer:     entry.Response,
			Source:     SourceCache,
			TokenCount: entry.TokenCount,
			Similarity: score,
		}, nil
	}

	if err := o.limiter.TryReserve(now); err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	fc, err := o.aggregator.Build(ctx, ownerID, now)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	history, err := o.logs.ListRecent(ctx, ownerID, o.historyTurns)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	completion, err := o.completer.Complete(ctx, buildMessages(fc, history, question))
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := o.logs.InsertExchange(ctx, ownerID, question, completion.Text, now); err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := o.cache.Store(ctx, ownerID, question, completion.Text, completion.TokenCount, now); err != nil {
		o.logger.Warn("caching answer failed", "owner_id", ownerID, "error", err)
	}

	o.sink.Record(ctx, ownerID, agentresult.AgentChat, map[string]any{
		"question":    question,
		"answer":      completion.Text,
		"token_count": completion.TokenCount,
	})

	metrics.ChatRequestsTotal.WithLabelValues("live").Inc()

	return &AskResult{
		Answer:     completion.Text,
		Source:     SourceLive,
		TokenCount: completion.TokenCount,
	}, nil
}

// buildMessages assembles the prompt: system framing with the financial
// snapshot, then the bounded recent history, then the question.
func buildMessages(fc *finctx.FinancialContext, history []Log, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: systemPrompt + "\n\n" + fc.Render(),
	})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: RoleUser, Content: question})
	return messages
}

// History returns the owner's recent conversation turns, oldest first.
func (o *Orchestrator) History(ctx context.Context, ownerID uuid.UUID, turns int) ([]Log, error) {
	if turns <= 0 {
		turns = o.historyTurns
	}
	return o.logs.ListRecent(ctx, ownerID, turns)
}

// ClearHistory removes the owner's conversation log and cache partition
// together, so a cleared history can never resurface through a cache hit.
func (o *Orchestrator) ClearHistory(ctx context.Context, ownerID uuid.UUID) error {
	if err := o.cache.Clear(ctx, ownerID); err != nil {
		return err
	}
	return o.logs.Clear(ctx, ownerID)
}

// QuotaUsage reports current external-call consumption.
func (o *Orchestrator) QuotaUsage() quota.Usage {
	return o.limiter.Snapshot(time.Now().UTC())
}
