package finctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finassist-platform/finassist/internal/ledger"
)

type stubRepo struct {
	ledger.Repository

	txns    []ledger.Transaction
	totals  []ledger.CategoryTotal
	summary ledger.MonthSummary
	bills   []ledger.Bill
	err     error

	sinceSeen      time.Time
	fromSeen       time.Time
	toSeen         time.Time
	monthStartSeen time.Time
	monthEndSeen   time.Time
}

func (s *stubRepo) ListTransactionsSince(_ context.Context, _ uuid.UUID, since time.Time) ([]ledger.Transaction, error) {
	s.sinceSeen = since
	return s.txns, s.err
}

func (s *stubRepo) CategoryTotalsSince(_ context.Context, _ uuid.UUID, _ time.Time) ([]ledger.CategoryTotal, error) {
	return s.totals, s.err
}

func (s *stubRepo) MonthSummary(_ context.Context, _ uuid.UUID, monthStart, monthEnd time.Time) (ledger.MonthSummary, error) {
	s.monthStartSeen = monthStart
	s.monthEndSeen = monthEnd
	return s.summary, s.err
}

func (s *stubRepo) ListBillsDueWithin(_ context.Context, _ uuid.UUID, from, to time.Time) ([]ledger.Bill, error) {
	s.fromSeen = from
	s.toSeen = to
	return s.bills, s.err
}

func TestAggregator_BuildAssemblesContext(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		txns: []ledger.Transaction{
			{Category: "groceries", TxnType: ledger.TxnExpense, AmountCents: 4200, OccurredAt: now.AddDate(0, 0, -1)},
		},
		totals:  []ledger.CategoryTotal{{Category: "groceries", AmountCents: 4200}},
		summary: ledger.MonthSummary{IncomeCents: 500000, ExpenseCents: 320000},
		bills:   []ledger.Bill{{Name: "Electricity", AmountCents: 90000, NextDue: now.AddDate(0, 0, 3)}},
	}

	agg := NewAggregator(repo, 30, 30, 5*time.Second)
	fc, err := agg.Build(context.Background(), uuid.New(), now)
	require.NoError(t, err)

	assert.Equal(t, "June 2024", fc.Month)
	assert.EqualValues(t, 180000, fc.NetCents)
	assert.Len(t, fc.RecentTransactions, 1)
	assert.Len(t, fc.UpcomingBills, 1)

	// Transaction window goes back exactly 30 days, bill horizon forward 30
	assert.Equal(t, now.AddDate(0, 0, -30), repo.sinceSeen)
	assert.Equal(t, now, repo.fromSeen)
	assert.Equal(t, now.AddDate(0, 0, 30), repo.toSeen)

	// Month summary is bounded on both sides so future-dated entries in
	// later months never inflate the running month
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), repo.monthStartSeen)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), repo.monthEndSeen)
}

func TestAggregator_BuildPropagatesStoreFailure(t *testing.T) {
	repo := &stubRepo{err: ledger.ErrDataUnavailable}
	agg := NewAggregator(repo, 30, 30, 5*time.Second)

	_, err := agg.Build(context.Background(), uuid.New(), time.Now())
	require.ErrorIs(t, err, ledger.ErrDataUnavailable)
}

func TestFinancialContext_RenderIncludesEverySection(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	fc := &FinancialContext{
		Month:   "June 2024",
		Summary: ledger.MonthSummary{IncomeCents: 500000, ExpenseCents: 320000},
		NetCents: 180000,
		CategoryTotals: []ledger.CategoryTotal{
			{Category: "groceries", AmountCents: 123456},
		},
		RecentTransactions: []ledger.Transaction{
			{Category: "groceries", TxnType: ledger.TxnExpense, AmountCents: 4200, OccurredAt: now, Description: "weekly shop"},
		},
		UpcomingBills: []ledger.Bill{
			{Name: "Electricity", AmountCents: 90000, NextDue: now.AddDate(0, 0, 3)},
		},
	}

	out := fc.Render()
	assert.Contains(t, out, "June 2024")
	assert.Contains(t, out, "groceries: 1234.56")
	assert.Contains(t, out, "weekly shop")
	assert.Contains(t, out, "Electricity: 900.00 due 2024-06-18")
	assert.Contains(t, out, "Net this month: 1800.00")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "12.00", FormatCents(1200))
	assert.Equal(t, "-3.50", FormatCents(-350))
}
