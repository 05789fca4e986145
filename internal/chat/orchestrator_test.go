package chat

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finassist-platform/finassist/internal/agentresult"
	"github.com/finassist-platform/finassist/internal/cache"
	"github.com/finassist-platform/finassist/internal/finctx"
	"github.com/finassist-platform/finassist/internal/ledger"
	"github.com/finassist-platform/finassist/internal/llm"
	"github.com/finassist-platform/finassist/internal/quota"
)

type fakeCompleter struct {
	calls  int
	answer string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.answer, TokenCount: 42}, nil
}

type memLogRepo struct {
	logs []Log
}

func (m *memLogRepo) InsertExchange(_ context.Context, ownerID uuid.UUID, question, answer string, at time.Time) error {
	m.logs = append(m.logs,
		Log{ID: uuid.New(), OwnerID: ownerID, Role: RoleUser, Content: question, CreatedAt: at},
		Log{ID: uuid.New(), OwnerID: ownerID, Role: RoleAssistant, Content: answer, CreatedAt: at.Add(time.Millisecond)},
	)
	return nil
}

func (m *memLogRepo) ListRecent(_ context.Context, ownerID uuid.UUID, turns int) ([]Log, error) {
	var out []Log
	for _, l := range m.logs {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	if len(out) > turns*2 {
		out = out[len(out)-turns*2:]
	}
	return out, nil
}

func (m *memLogRepo) Clear(_ context.Context, ownerID uuid.UUID) error {
	var kept []Log
	for _, l := range m.logs {
		if l.OwnerID != ownerID {
			kept = append(kept, l)
		}
	}
	m.logs = kept
	return nil
}

type stubLedger struct {
	ledger.Repository
	err error
}

func (s *stubLedger) ListTransactionsSince(context.Context, uuid.UUID, time.Time) ([]ledger.Transaction, error) {
	return []ledger.Transaction{
		{Category: "groceries", TxnType: ledger.TxnExpense, AmountCents: 42000, OccurredAt: time.Now()},
	}, s.err
}

func (s *stubLedger) CategoryTotalsSince(context.Context, uuid.UUID, time.Time) ([]ledger.CategoryTotal, error) {
	return []ledger.CategoryTotal{{Category: "groceries", AmountCents: 42000}}, s.err
}

func (s *stubLedger) MonthSummary(context.Context, uuid.UUID, time.Time, time.Time) (ledger.MonthSummary, error) {
	return ledger.MonthSummary{IncomeCents: 500000, ExpenseCents: 42000}, s.err
}

func (s *stubLedger) ListBillsDueWithin(context.Context, uuid.UUID, time.Time, time.Time) ([]ledger.Bill, error) {
	return nil, s.err
}

func newTestOrchestrator(t *testing.T, completer llm.Completer, limiter *quota.Limiter) (*Orchestrator, *memLogRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := cache.NewStore(client, 0.80, 50, time.Hour)
	agg := finctx.NewAggregator(&stubLedger{}, 30, 30, 5*time.Second)
	logs := &memLogRepo{}

	orch := NewOrchestrator(limiter, store, agg, completer, logs,
		agentresult.NopSink{}, 5, slog.Default())
	return orch, logs
}

func TestOrchestrator_RepeatQuestionServedFromCache(t *testing.T) {
	completer := &fakeCompleter{answer: "You spent 420.00 on groceries this month."}
	limiter := quota.NewLimiter(25, 14000, time.Now().UTC())
	orch, logs := newTestOrchestrator(t, completer, limiter)

	ctx := context.Background()
	owner := uuid.New()

	first, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	require.NoError(t, err)
	assert.Equal(t, SourceLive, first.Source)
	assert.Equal(t, 1, completer.calls)
	assert.Len(t, logs.logs, 2, "live exchange is logged")

	second, err := orch.Ask(ctx, owner, "How much have I spent on groceries?")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Answer, second.Answer)
	assert.GreaterOrEqual(t, second.Similarity, 0.80)
	assert.Equal(t, 1, completer.calls, "cached answer must not reach the model")
}

func TestOrchestrator_CacheHitBypassesRateLimiter(t *testing.T) {
	completer := &fakeCompleter{answer: "answer"}
	limiter := quota.NewLimiter(1, 14000, time.Now().UTC())
	orch, _ := newTestOrchestrator(t, completer, limiter)

	ctx := context.Background()
	owner := uuid.New()

	_, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	require.NoError(t, err)

	// Quota is exhausted, but the repeat question is answerable from cache
	res, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)

	// A genuinely new question must hit the exhausted limiter
	_, err = orch.Ask(ctx, owner, "When is my next insurance payment due?")
	var rl *quota.RateLimitedError
	require.ErrorAs(t, err, &rl)
}

func TestOrchestrator_UpstreamFailureIsNeverCached(t *testing.T) {
	completer := &fakeCompleter{err: &llm.UpstreamError{Status: 502, Reason: "bad gateway"}}
	limiter := quota.NewLimiter(25, 14000, time.Now().UTC())
	orch, logs := newTestOrchestrator(t, completer, limiter)

	ctx := context.Background()
	owner := uuid.New()

	_, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	var ue *llm.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Empty(t, logs.logs, "failed exchange must not be logged")

	// Recover the upstream and retry: still a miss, proving nothing was cached
	completer.err = nil
	completer.answer = "recovered"
	res, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, 2, completer.calls)
}

func TestOrchestrator_ClearHistoryRemovesLogsAndCache(t *testing.T) {
	completer := &fakeCompleter{answer: "answer"}
	limiter := quota.NewLimiter(25, 14000, time.Now().UTC())
	orch, logs := newTestOrchestrator(t, completer, limiter)

	ctx := context.Background()
	owner := uuid.New()

	_, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	require.NoError(t, err)

	require.NoError(t, orch.ClearHistory(ctx, owner))
	assert.Empty(t, logs.logs)

	// Same question again must be a miss and consume quota
	res, err := orch.Ask(ctx, owner, "How much did I spend on groceries?")
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, 2, completer.calls)
}

func TestOrchestrator_OwnersNeverShareCachedAnswers(t *testing.T) {
	completer := &fakeCompleter{answer: "owner A's private answer"}
	limiter := quota.NewLimiter(25, 14000, time.Now().UTC())
	orch, _ := newTestOrchestrator(t, completer, limiter)

	ctx := context.Background()

	_, err := orch.Ask(ctx, uuid.New(), "How much did I spend on groceries?")
	require.NoError(t, err)

	res, err := orch.Ask(ctx, uuid.New(), "How much did I spend on groceries?")
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source, "a different owner must never hit another owner's cache")
	assert.Equal(t, 2, completer.calls)
}

func TestOrchestrator_StoreFailurePropagates(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	agg := finctx.NewAggregator(&stubLedger{err: ledger.ErrDataUnavailable}, 30, 30, 5*time.Second)
	orch := NewOrchestrator(
		quota.NewLimiter(25, 14000, time.Now().UTC()),
		cache.NewStore(client, 0.80, 50, time.Hour),
		agg,
		&fakeCompleter{answer: "unused"},
		&memLogRepo{},
		agentresult.NopSink{},
		5,
		slog.Default(),
	)

	_, err = orch.Ask(context.Background(), uuid.New(), "How much did I spend on groceries?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrDataUnavailable))
}
