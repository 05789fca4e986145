package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finassist-platform/finassist/internal/ledger"
)

func expense(category string, cents int64, at time.Time) ledger.Transaction {
	return ledger.Transaction{
		Category:    category,
		TxnType:     ledger.TxnExpense,
		AmountCents: cents,
		OccurredAt:  at,
	}
}

func TestAnalyze_FlagsCategoryExceedingOwnAverage(t *testing.T) {
	engine := NewEngine(1.3)
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	// dining latest month is 1.5x its own average, groceries stays flat
	txns := []ledger.Transaction{
		expense("dining", 10000, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		expense("dining", 10000, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
		expense("dining", 20000, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
		expense("groceries", 30000, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		expense("groceries", 30000, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)),
		expense("groceries", 30000, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
	}

	result := engine.Analyze(txns, now)
	require.Len(t, result.Categories, 2)

	byCat := map[string]CategoryInsight{}
	for _, ci := range result.Categories {
		byCat[ci.Category] = ci
	}

	// dining average = 40000/3 = 13333; latest 20000 = 1.5x -> high
	dining := byCat["dining"]
	assert.Equal(t, FlagHigh, dining.Flag)

	groceries := byCat["groceries"]
	assert.Equal(t, FlagStable, groceries.Flag)

	// Savings = latest - average for the flagged category only
	assert.EqualValues(t, 20000-13333, result.PotentialSavingsCents)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "Dining")
}

func TestAnalyze_RankedByTotalDescending(t *testing.T) {
	engine := NewEngine(1.3)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	txns := []ledger.Transaction{
		expense("small", 1000, now),
		expense("big", 90000, now),
		expense("medium", 40000, now),
	}

	result := engine.Analyze(txns, now)
	require.Len(t, result.Categories, 3)
	assert.Equal(t, "big", result.Categories[0].Category)
	assert.Equal(t, "medium", result.Categories[1].Category)
	assert.Equal(t, "small", result.Categories[2].Category)
}

func TestAnalyze_SavingsNeverNegative(t *testing.T) {
	engine := NewEngine(1.3)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Latest month below average: nothing flagged, zero savings
	txns := []ledger.Transaction{
		expense("dining", 50000, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		expense("dining", 50000, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
		expense("dining", 5000, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
	}

	result := engine.Analyze(txns, now)
	assert.GreaterOrEqual(t, result.PotentialSavingsCents, int64(0))
	assert.Empty(t, result.Recommendations)
}

func TestAnalyze_IncomeIgnored(t *testing.T) {
	engine := NewEngine(1.3)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	txns := []ledger.Transaction{
		{Category: "salary", TxnType: ledger.TxnIncome, AmountCents: 500000, OccurredAt: now},
		expense("groceries", 10000, now),
	}

	result := engine.Analyze(txns, now)
	require.Len(t, result.Categories, 1)
	assert.Equal(t, "groceries", result.Categories[0].Category)
}

func TestAdviceFor_KeywordTableAndFallback(t *testing.T) {
	assert.Contains(t, adviceFor("Dining Out"), "Dining spend")
	assert.Contains(t, adviceFor("monthly groceries"), "Grocery spend")
	assert.Contains(t, adviceFor("streaming services"), "subscriptions")
	assert.Contains(t, adviceFor("miscellaneous"), "Miscellaneous")
}
