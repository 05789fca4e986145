// Package reminder classifies bills by due-date proximity and handles the
// payment transition. Bucketing is a pure function of the bill and the
// clock, always on UTC calendar dates.
package reminder

import (
	"time"

	"github.com/finassist-platform/finassist/internal/ledger"
)

// Bucket classifies how close a bill is to its due date.
type Bucket string

const (
	BucketOverdue    Bucket = "overdue"
	BucketDueToday   Bucket = "due_today"
	BucketComingSoon Bucket = "coming_soon"
	BucketUpcoming   Bucket = "upcoming"
	BucketInactive   Bucket = "inactive"
)

// dateOf truncates to the UTC calendar date so bucketing never drifts with
// the time of day or a local timezone.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BucketFor returns the bill's bucket as of now.
func BucketFor(bill ledger.Bill, now time.Time) Bucket {
	if !bill.Active() {
		return BucketInactive
	}

	days := int(dateOf(bill.NextDue).Sub(dateOf(now)).Hours() / 24)
	switch {
	case days < 0:
		return BucketOverdue
	case days == 0:
		return BucketDueToday
	case days <= 7:
		return BucketComingSoon
	default:
		return BucketUpcoming
	}
}

// DaysUntilDue counts whole calendar days from now to the due date.
// Negative for overdue bills.
func DaysUntilDue(bill ledger.Bill, now time.Time) int {
	return int(dateOf(bill.NextDue).Sub(dateOf(now)).Hours() / 24)
}

// MarkPaid applies the payment transition in place. A one_time bill becomes
// permanently inactive; a recurring bill rolls its due date forward one
// calendar month or year and stays payable.
func MarkPaid(bill *ledger.Bill, paidAt time.Time) error {
	if !bill.Active() {
		return ledger.ErrInvalidBillState
	}

	paidAt = paidAt.UTC()
	bill.LastPaid = &paidAt

	switch bill.Frequency {
	case ledger.FrequencyMonthly:
		bill.NextDue = rollForward(bill.NextDue, 0, 1)
		bill.IsPaid = false
	case ledger.FrequencyYearly:
		bill.NextDue = rollForward(bill.NextDue, 1, 0)
		bill.IsPaid = false
	default:
		bill.IsPaid = true
	}
	return nil
}

// rollForward advances the due date by whole calendar units, clamping the
// day to the target month's length. A bill due Jan 31 rolls to the last day
// of February, never into March; no occurrence is ever skipped.
func rollForward(t time.Time, years, months int) time.Time {
	t = t.UTC()
	y, m, d := t.Date()

	target := time.Date(y+years, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := target.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
