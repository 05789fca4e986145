package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finassist-platform/finassist/internal/agentresult"
	"github.com/finassist-platform/finassist/internal/ledger"
	"github.com/finassist-platform/finassist/internal/metrics"
)

// Reminder is one bill with its classification and advice.
type Reminder struct {
	Bill         ledger.Bill `json:"bill"`
	Bucket       Bucket      `json:"bucket"`
	DaysUntilDue int         `json:"days_until_due"`
	Advice       []string    `json:"advice,omitempty"`
}

// Buckets groups an owner's active bills by due-date proximity. Each slice
// is ordered by due date ascending.
type Buckets struct {
	Overdue    []Reminder `json:"overdue"`
	DueToday   []Reminder `json:"due_today"`
	ComingSoon []Reminder `json:"coming_soon"`
	Upcoming   []Reminder `json:"upcoming"`
}

// Service classifies bills and applies payments against the store.
type Service struct {
	repo    ledger.Repository
	sink    agentresult.Sink
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo ledger.Repository, sink agentresult.Sink, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		sink:    sink,
		timeout: timeout,
		logger:  logger,
	}
}

// RefreshReminders reclassifies every active bill as of now.
func (s *Service) RefreshReminders(ctx context.Context, ownerID uuid.UUID, now time.Time) (*Buckets, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bills, err := s.repo.ListActiveBills(readCtx, ownerID)
	if err != nil {
		return nil, err
	}

	buckets := &Buckets{}
	for _, bill := range bills {
		r := Reminder{
			Bill:         bill,
			Bucket:       BucketFor(bill, now),
			DaysUntilDue: DaysUntilDue(bill, now),
			Advice:       AdviceFor(bill),
		}
		switch r.Bucket {
		case BucketOverdue:
			buckets.Overdue = append(buckets.Overdue, r)
		case BucketDueToday:
			buckets.DueToday = append(buckets.DueToday, r)
		case BucketComingSoon:
			buckets.ComingSoon = append(buckets.ComingSoon, r)
		case BucketUpcoming:
			buckets.Upcoming = append(buckets.Upcoming, r)
		}
	}

	metrics.EngineRunsTotal.WithLabelValues("reminder").Inc()
	s.sink.Record(ctx, ownerID, agentresult.AgentReminder, buckets)

	return buckets, nil
}

// MarkBillPaid applies the payment transition and persists it. When
// logAsTransaction is set, an expense row is written alongside so the
// payment shows up in spending analysis.
func (s *Service) MarkBillPaid(ctx context.Context, ownerID, billID uuid.UUID, paidAt time.Time, logAsTransaction bool) (*ledger.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bill, err := s.repo.GetBill(ctx, ownerID, billID)
	if err != nil {
		return nil, err
	}

	if err := MarkPaid(bill, paidAt); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBillPayment(ctx, bill); err != nil {
		return nil, err
	}

	if logAsTransaction {
		txn := &ledger.Transaction{
			OwnerID:     ownerID,
			BillID:      &bill.ID,
			Category:    bill.Name,
			TxnType:     ledger.TxnExpense,
			AmountCents: bill.AmountCents,
			OccurredAt:  paidAt.UTC(),
			Description: "Bill payment: " + bill.Name,
		}
		if err := s.repo.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
	}

	s.logger.Info("bill paid",
		"owner_id", ownerID,
		"bill_id", billID,
		"frequency", bill.Frequency,
		"next_due", bill.NextDue,
	)

	return bill, nil
}
