// Package forecast predicts next-month spending from historical
// transactions. All numeric work is closed-form and deterministic; nothing
// here touches the external model service.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/finassist-platform/finassist/internal/finctx"
	"github.com/finassist-platform/finassist/internal/ledger"
)

// ErrInsufficientData marks a forecast built on under 30 days of history.
// It always accompanies a usable best-effort Result; callers render the
// result with a low-confidence marker instead of refusing.
var ErrInsufficientData = errors.New("insufficient transaction history")

// Trend classifications.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Confidence bands.
const (
	confidenceStrong = 0.80
	confidenceWeak   = 0.60
)

// CategoryForecast is the per-category projection.
type CategoryForecast struct {
	Category        string `json:"category"`
	PredictedCents  int64  `json:"predicted_cents"`
	LastMonthCents  int64  `json:"last_month_cents"`
	MonthlyAvgCents int64  `json:"monthly_avg_cents"`
	Trend           string `json:"trend"`
}

// Result is one complete forecast.
type Result struct {
	PredictedTotalCents int64              `json:"predicted_total_cents"`
	Confidence          float64            `json:"confidence"`
	ByCategory          []CategoryForecast `json:"by_category"`
	Explanation         string             `json:"explanation"`
}

// Engine holds the tuning constants.
type Engine struct {
	trendThreshold float64
	billHorizon    time.Duration
}

func NewEngine(trendThreshold float64) *Engine {
	return &Engine{
		trendThreshold: trendThreshold,
		billHorizon:    30 * 24 * time.Hour,
	}
}

type monthKey struct {
	year  int
	month time.Month
}

func keyOf(t time.Time) monthKey {
	t = t.UTC()
	return monthKey{year: t.Year(), month: t.Month()}
}

// Forecast projects next-month spending. With under 30 days of history the
// returned error is ErrInsufficientData and the result is still valid.
func (e *Engine) Forecast(transactions []ledger.Transaction, bills []ledger.Bill, now time.Time) (*Result, error) {
	now = now.UTC()

	buckets := map[string]map[monthKey]int64{}
	var oldest, newest time.Time
	for _, t := range transactions {
		if t.TxnType != ledger.TxnExpense {
			continue
		}
		if buckets[t.Category] == nil {
			buckets[t.Category] = map[monthKey]int64{}
		}
		buckets[t.Category][keyOf(t.OccurredAt)] += t.AmountCents

		occ := t.OccurredAt.UTC()
		if oldest.IsZero() || occ.Before(oldest) {
			oldest = occ
		}
		if occ.After(newest) {
			newest = occ
		}
	}

	var forecasts []CategoryForecast
	var total int64
	for category, months := range buckets {
		cf := projectCategory(category, months, e.trendThreshold)
		forecasts = append(forecasts, cf)
		total += cf.PredictedCents
	}
	sort.Slice(forecasts, func(i, j int) bool {
		return forecasts[i].PredictedCents > forecasts[j].PredictedCents
	})

	// Bills due soon that no recurring category already absorbs
	addedBills := e.addUnreflectedBills(bills, buckets, now)
	for _, b := range addedBills {
		total += b.AmountCents
	}

	spanDays := 0
	if !oldest.IsZero() {
		spanDays = int(newest.Sub(oldest).Hours()/24) + 1
	}
	confidence := confidenceFor(spanDays, buckets)

	result := &Result{
		PredictedTotalCents: total,
		Confidence:          confidence,
		ByCategory:          forecasts,
		Explanation:         explain(spanDays, forecasts, addedBills, confidence),
	}

	if spanDays < 30 {
		return result, ErrInsufficientData
	}
	return result, nil
}

// projectCategory extends the last month's total by the slope between the
// two most recent monthly totals, floored at zero.
func projectCategory(category string, months map[monthKey]int64, trendThreshold float64) CategoryForecast {
	keys := sortedKeys(months)

	var sum int64
	for _, k := range keys {
		sum += months[k]
	}
	avg := sum / int64(len(keys))
	last := months[keys[len(keys)-1]]

	cf := CategoryForecast{
		Category:        category,
		LastMonthCents:  last,
		MonthlyAvgCents: avg,
		PredictedCents:  last,
		Trend:           TrendStable,
	}

	if len(keys) < 2 {
		return cf
	}

	prev := months[keys[len(keys)-2]]
	slope := last - prev
	if prev > 0 && math.Abs(float64(slope))/float64(prev) > trendThreshold {
		if slope > 0 {
			cf.Trend = TrendIncreasing
		} else {
			cf.Trend = TrendDecreasing
		}
		cf.PredictedCents = last + slope
		if cf.PredictedCents < 0 {
			cf.PredictedCents = 0
		}
	}
	return cf
}

func sortedKeys(months map[monthKey]int64) []monthKey {
	keys := make([]monthKey, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	return keys
}

// addUnreflectedBills returns bills due inside the horizon whose amounts are
// not already part of a recurring category. A category counts as recurring
// when its normalized name matches a bucket seen in two or more months.
func (e *Engine) addUnreflectedBills(bills []ledger.Bill, buckets map[string]map[monthKey]int64, now time.Time) []ledger.Bill {
	var added []ledger.Bill
	horizon := now.Add(e.billHorizon)

	for _, b := range bills {
		if !b.Active() || b.NextDue.Before(now) || b.NextDue.After(horizon) {
			continue
		}
		if isRecurringCategory(buckets, b.Name) {
			continue
		}
		added = append(added, b)
	}
	return added
}

func isRecurringCategory(buckets map[string]map[monthKey]int64, billName string) bool {
	name := strings.ToLower(strings.TrimSpace(billName))
	for category, months := range buckets {
		if strings.ToLower(category) == name && len(months) >= 2 {
			return true
		}
	}
	return false
}

// confidenceFor maps data span and monthly variance into the documented
// bands: >= 0.80 for three or more low-variance months, < 0.60 under 30
// days of history, the middle band otherwise.
func confidenceFor(spanDays int, buckets map[string]map[monthKey]int64) float64 {
	spanMonths := spanDays / 30
	if spanMonths > 4 {
		spanMonths = 4
	}
	confidence := 0.35 + 0.15*float64(spanMonths)

	// Variance of overall monthly totals, as coefficient of variation
	overall := map[monthKey]int64{}
	for _, months := range buckets {
		for k, v := range months {
			overall[k] += v
		}
	}
	if len(overall) >= 2 {
		var sum float64
		for _, v := range overall {
			sum += float64(v)
		}
		mean := sum / float64(len(overall))
		if mean > 0 {
			var variance float64
			for _, v := range overall {
				d := float64(v) - mean
				variance += d * d
			}
			variance /= float64(len(overall))
			cv := math.Sqrt(variance) / mean
			penalty := cv * 0.5
			if penalty > 0.25 {
				penalty = 0.25
			}
			confidence -= penalty
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

func explain(spanDays int, forecasts []CategoryForecast, addedBills []ledger.Bill, confidence float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Projection over %d days of history across %d categories.", spanDays, len(forecasts))

	var moving []string
	for _, cf := range forecasts {
		if cf.Trend != TrendStable {
			moving = append(moving, fmt.Sprintf("%s %s", cf.Category, cf.Trend))
		}
	}
	if len(moving) > 0 {
		fmt.Fprintf(&b, " Trending: %s.", strings.Join(moving, ", "))
	}

	if len(addedBills) > 0 {
		names := make([]string, 0, len(addedBills))
		for _, bill := range addedBills {
			names = append(names, fmt.Sprintf("%s (%s)", bill.Name, finctx.FormatCents(bill.AmountCents)))
		}
		fmt.Fprintf(&b, " Upcoming bills added: %s.", strings.Join(names, ", "))
	}

	switch {
	case confidence >= confidenceStrong:
		b.WriteString(" Strong pattern detected.")
	case confidence >= confidenceWeak:
		b.WriteString(" Moderate confidence; patterns are still forming.")
	default:
		b.WriteString(" Low confidence; add more transaction history for a better projection.")
	}

	return b.String()
}
