package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/agentresult"
	"github.com/finassist-platform/finassist/internal/ledger"
	"github.com/finassist-platform/finassist/internal/llm"
	"github.com/finassist-platform/finassist/internal/metrics"
	"github.com/finassist-platform/finassist/internal/quota"
)

const narrativePrompt = `You are a personal finance assistant. Rewrite the
following structured spending findings as two or three friendly sentences.
Do not change, add or omit any numbers.`

// Service runs the engine over full history and optionally asks the model
// to phrase a narrative over the structured findings. The narrative is
// best-effort: quota denial or upstream failure drops it, never the run.
type Service struct {
	repo      ledger.Repository
	engine    *Engine
	limiter   *quota.Limiter
	completer llm.Completer
	sink      agentresult.Sink
	timeout   time.Duration
	logger    *slog.Logger
}

func NewService(
	repo ledger.Repository,
	engine *Engine,
	limiter *quota.Limiter,
	completer llm.Completer,
	sink agentresult.Sink,
	timeout time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		limiter:   limiter,
		completer: completer,
		sink:      sink,
		timeout:   timeout,
		logger:    logger,
	}
}

// Run analyzes the owner's spending. withNarrative adds a model-phrased
// summary when quota and the upstream allow it.
func (s *Service) Run(ctx context.Context, ownerID uuid.UUID, now time.Time, withNarrative bool) (*Result, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transactions, err := s.repo.ListExpensesAll(readCtx, ownerID)
	if err != nil {
		return nil, err
	}

	result := s.engine.Analyze(transactions, now)

	if withNarrative && s.completer != nil {
		result.Narrative = s.narrate(ctx, ownerID, result)
	}

	metrics.EngineRunsTotal.WithLabelValues("insights").Inc()
	s.sink.Record(ctx, ownerID, agentresult.AgentInsights, result)

	s.logger.Info("insights computed",
		"owner_id", ownerID,
		"categories", len(result.Categories),
		"potential_savings_cents", result.PotentialSavingsCents,
	)

	return result, nil
}

func (s *Service) narrate(ctx context.Context, ownerID uuid.UUID, result *Result) string {
	if err := s.limiter.TryReserve(time.Now().UTC()); err != nil {
		s.logger.Warn("skipping narrative, quota exhausted", "owner_id", ownerID)
		return ""
	}

	completion, err := s.completer.Complete(ctx, []llm.Message{
		{Role: "system", Content: narrativePrompt},
		{Role: "user", Content: result.Summary()},
	})
	if err != nil {
		s.logger.Warn("skipping narrative, upstream failed", "owner_id", ownerID, "error", err)
		return ""
	}
	return completion.Text
}
