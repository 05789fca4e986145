// Package finctx assembles the financial snapshot injected into every live
// LLM exchange and reused by the analytics engines.
package finctx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/ledger"
)

// FinancialContext is the owner's current financial picture: recent
// activity, spend by category, the running month, and what is coming due.
type FinancialContext struct {
	Month              string                 `json:"month"`
	RecentTransactions []ledger.Transaction   `json:"recent_transactions"`
	CategoryTotals     []ledger.CategoryTotal `json:"category_totals"`
	Summary            ledger.MonthSummary    `json:"summary"`
	NetCents           int64                  `json:"net_cents"`
	UpcomingBills      []ledger.Bill          `json:"upcoming_bills"`
}

// Aggregator builds contexts from the ledger. Every build runs under its
// own deadline so a slow store cannot stall a chat request indefinitely.
type Aggregator struct {
	repo            ledger.Repository
	windowDays      int
	billHorizonDays int
	timeout         time.Duration
}

func NewAggregator(repo ledger.Repository, windowDays, billHorizonDays int, timeout time.Duration) *Aggregator {
	return &Aggregator{
		repo:            repo,
		windowDays:      windowDays,
		billHorizonDays: billHorizonDays,
		timeout:         timeout,
	}
}

// Build assembles the owner's context as of now. Any store failure aborts
// the whole build; a partial context would misinform the model.
func (a *Aggregator) Build(ctx context.Context, ownerID uuid.UUID, now time.Time) (*FinancialContext, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	now = now.UTC()
	since := now.AddDate(0, 0, -a.windowDays)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	txns, err := a.repo.ListTransactionsSince(ctx, ownerID, since)
	if err != nil {
		return nil, err
	}

	totals, err := a.repo.CategoryTotalsSince(ctx, ownerID, since)
	if err != nil {
		return nil, err
	}

	summary, err := a.repo.MonthSummary(ctx, ownerID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	bills, err := a.repo.ListBillsDueWithin(ctx, ownerID, now, now.AddDate(0, 0, a.billHorizonDays))
	if err != nil {
		return nil, err
	}

	return &FinancialContext{
		Month:              now.Format("January 2006"),
		RecentTransactions: txns,
		CategoryTotals:     totals,
		Summary:            summary,
		NetCents:           summary.IncomeCents - summary.ExpenseCents,
		UpcomingBills:      bills,
	}, nil
}

// Render flattens the context into the plain-text block the chat prompt
// embeds. Amounts are printed in major units with two decimals.
func (c *FinancialContext) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current month: %s\n", c.Month)
	fmt.Fprintf(&b, "Income this month: %s\n", FormatCents(c.Summary.IncomeCents))
	fmt.Fprintf(&b, "Expenses this month: %s\n", FormatCents(c.Summary.ExpenseCents))
	fmt.Fprintf(&b, "Net this month: %s\n", FormatCents(c.NetCents))

	b.WriteString("\nSpending by category (recent window):\n")
	if len(c.CategoryTotals) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, ct := range c.CategoryTotals {
		fmt.Fprintf(&b, "  %s: %s\n", ct.Category, FormatCents(ct.AmountCents))
	}

	b.WriteString("\nRecent transactions (newest first):\n")
	if len(c.RecentTransactions) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, t := range c.RecentTransactions {
		fmt.Fprintf(&b, "  %s %s %s %s (%s)\n",
			t.OccurredAt.Format("2006-01-02"), t.TxnType, FormatCents(t.AmountCents), t.Category, t.Description)
	}

	b.WriteString("\nUpcoming bills:\n")
	if len(c.UpcomingBills) == 0 {
		b.WriteString("  none due soon\n")
	}
	for _, bill := range c.UpcomingBills {
		fmt.Fprintf(&b, "  %s: %s due %s\n", bill.Name, FormatCents(bill.AmountCents), bill.NextDue.Format("2006-01-02"))
	}

	return b.String()
}

// FormatCents prints an integer minor-unit amount as a decimal string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
