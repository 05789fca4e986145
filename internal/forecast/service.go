package forecast

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/agentresult"
	"github.com/finassist-platform/finassist/internal/ledger"
	"github.com/finassist-platform/finassist/internal/metrics"
)

// Service runs the engine over the owner's full expense history and records
// the invocation.
type Service struct {
	repo    ledger.Repository
	engine  *Engine
	sink    agentresult.Sink
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo ledger.Repository, engine *Engine, sink agentresult.Sink, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		engine:  engine,
		sink:    sink,
		timeout: timeout,
		logger:  logger,
	}
}

// Run produces a forecast for the owner. ErrInsufficientData still carries a
// usable low-confidence result.
func (s *Service) Run(ctx context.Context, ownerID uuid.UUID, now time.Time) (*Result, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transactions, err := s.repo.ListExpensesAll(readCtx, ownerID)
	if err != nil {
		return nil, err
	}
	bills, err := s.repo.ListActiveBills(readCtx, ownerID)
	if err != nil {
		return nil, err
	}

	result, ferr := s.engine.Forecast(transactions, bills, now)
	if ferr != nil && !errors.Is(ferr, ErrInsufficientData) {
		return nil, ferr
	}

	metrics.EngineRunsTotal.WithLabelValues("forecast").Inc()
	s.sink.Record(ctx, ownerID, agentresult.AgentForecast, result)

	s.logger.Info("forecast computed",
		"owner_id", ownerID,
		"predicted_total_cents", result.PredictedTotalCents,
		"confidence", result.Confidence,
	)

	return result, ferr
}
