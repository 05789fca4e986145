// Package insights ranks spending categories and produces rule-driven
// recommendations. The numbers are always computed here; the external model
// only ever rephrases them.
package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/finassist-platform/finassist/internal/finctx"
	"github.com/finassist-platform/finassist/internal/ledger"
)

// Category flags.
const (
	FlagHigh   = "high"
	FlagStable = "stable"
)

// adviceRules maps category keywords to the recommendation text used when
// that category is flagged high.
var adviceRules = []struct {
	keywords []string
	advice   string
}{
	{[]string{"dining", "restaurant", "food", "takeout"},
		"Dining spend is running above your usual pattern. Cooking at home a few more nights a week brings this down fast."},
	{[]string{"groceries", "grocery", "supermarket"},
		"Grocery spend jumped this month. Check for duplicate trips and consider a weekly shopping list to cut impulse buys."},
	{[]string{"shopping", "clothes", "clothing", "retail"},
		"Shopping is above your average. A 48-hour wait rule on non-essential purchases usually trims this category."},
	{[]string{"entertainment", "subscription", "streaming"},
		"Entertainment and subscriptions exceed your norm. Audit recurring services and cancel the ones you have not used this month."},
	{[]string{"transport", "fuel", "petrol", "gas", "taxi", "cab"},
		"Transport costs are elevated. Batching errands or switching a few trips to public transport can offset the rise."},
	{[]string{"travel", "flight", "hotel"},
		"Travel spend spiked this month. If trips are planned ahead, booking earlier typically lowers fares."},
}

const genericAdvice = "spending is above its historical average this month. Review recent transactions in this category for one-off costs you can avoid repeating."

// CategoryInsight is one category's standing against its own history.
type CategoryInsight struct {
	Category         string `json:"category"`
	TotalCents       int64  `json:"total_cents"`
	MonthlyAvgCents  int64  `json:"monthly_avg_cents"`
	LatestMonthCents int64  `json:"latest_month_cents"`
	Flag             string `json:"flag"`
}

// Result is one complete insights run.
type Result struct {
	Categories            []CategoryInsight `json:"categories"`
	Recommendations       []string          `json:"recommendations"`
	PotentialSavingsCents int64             `json:"potential_savings_cents"`
	Narrative             string            `json:"narrative,omitempty"`
}

// Engine flags categories whose latest month exceeds their own average by
// the configured ratio.
type Engine struct {
	highSpendRatio float64
}

func NewEngine(highSpendRatio float64) *Engine {
	return &Engine{highSpendRatio: highSpendRatio}
}

type monthKey struct {
	year  int
	month time.Month
}

// Analyze ranks categories by total spend and computes recommendations and
// clipped potential savings for the flagged ones.
func (e *Engine) Analyze(transactions []ledger.Transaction, now time.Time) *Result {
	now = now.UTC()
	latest := monthKey{year: now.Year(), month: now.Month()}

	totals := map[string]int64{}
	months := map[string]map[monthKey]int64{}
	for _, t := range transactions {
		if t.TxnType != ledger.TxnExpense {
			continue
		}
		totals[t.Category] += t.AmountCents
		if months[t.Category] == nil {
			months[t.Category] = map[monthKey]int64{}
		}
		occ := t.OccurredAt.UTC()
		months[t.Category][monthKey{year: occ.Year(), month: occ.Month()}] += t.AmountCents
	}

	result := &Result{}
	for category, total := range totals {
		monthCount := int64(len(months[category]))
		avg := total / monthCount
		latestTotal := months[category][latest]

		ci := CategoryInsight{
			Category:         category,
			TotalCents:       total,
			MonthlyAvgCents:  avg,
			LatestMonthCents: latestTotal,
			Flag:             FlagStable,
		}

		if avg > 0 && float64(latestTotal) > float64(avg)*e.highSpendRatio {
			ci.Flag = FlagHigh
			result.Recommendations = append(result.Recommendations, adviceFor(category))
			if saving := latestTotal - avg; saving > 0 {
				result.PotentialSavingsCents += saving
			}
		}
		result.Categories = append(result.Categories, ci)
	}

	sort.Slice(result.Categories, func(i, j int) bool {
		return result.Categories[i].TotalCents > result.Categories[j].TotalCents
	})
	sort.Strings(result.Recommendations)

	return result
}

func adviceFor(category string) string {
	normalized := strings.ToLower(category)
	for _, rule := range adviceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.advice
			}
		}
	}
	return fmt.Sprintf("%s %s", capitalize(normalized), genericAdvice)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Summary renders the structured findings as plain text for the optional
// narrative pass.
func (r *Result) Summary() string {
	var b strings.Builder
	b.WriteString("Spending by category (all history):\n")
	for _, ci := range r.Categories {
		fmt.Fprintf(&b, "  %s: total %s, monthly avg %s, latest month %s (%s)\n",
			ci.Category,
			finctx.FormatCents(ci.TotalCents),
			finctx.FormatCents(ci.MonthlyAvgCents),
			finctx.FormatCents(ci.LatestMonthCents),
			ci.Flag)
	}
	fmt.Fprintf(&b, "Potential monthly savings: %s\n", finctx.FormatCents(r.PotentialSavingsCents))
	return b.String()
}
