package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDataUnavailable marks store failures: the caller must fail the whole
// operation rather than proceed on partial data.
var ErrDataUnavailable = errors.New("financial data unavailable")

// ErrNotFound is returned when an owner-scoped row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidBillState rejects paying a bill that is already inactive. The
// bill is never mutated on rejection.
var ErrInvalidBillState = errors.New("bill is inactive and cannot be paid")

// Transaction types.
const (
	TxnExpense = "expense"
	TxnIncome  = "income"
)

// Bill frequencies.
const (
	FrequencyOneTime = "one_time"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Transaction is a single ledger row. All amounts are integer
// minor-currency units (paise); no floating point anywhere in the ledger.
type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	BillID      *uuid.UUID `json:"bill_id,omitempty"`
	Category    string     `json:"category"`
	TxnType     string     `json:"txn_type"`
	AmountCents int64      `json:"amount_cents"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Description string     `json:"description"`
}

// CategoryTotal is an aggregated expense sum for one category.
type CategoryTotal struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

// MonthSummary holds income/expense totals for the current calendar month.
type MonthSummary struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
}

// Bill is a recurring or one-time obligation. NextDue is always the
// earliest unsettled occurrence; a paid one_time bill is inactive.
type Bill struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Name        string     `json:"name"`
	AmountCents int64      `json:"amount_cents"`
	Frequency   string     `json:"frequency"`
	NextDue     time.Time  `json:"next_due"`
	IsPaid      bool       `json:"is_paid"`
	LastPaid    *time.Time `json:"last_paid,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Active reports whether the bill still participates in reminders.
func (b Bill) Active() bool {
	return !(b.Frequency == FrequencyOneTime && b.IsPaid)
}
