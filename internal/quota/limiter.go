// Package quota enforces the process-wide budget for external LLM calls.
package quota

import (
	"fmt"
	"sync"
	"time"

	"github.com/finassist-platform/finassist/internal/metrics"
)

const (
	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// RateLimitedError reports a denied reservation with the time remaining in
// the tighter-binding window. Callers surface it verbatim; nothing retries
// internally.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfterSeconds())
}

// RetryAfterSeconds rounds the wait up so clients never retry early.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Usage is a point-in-time snapshot for the quota introspection endpoint.
type Usage struct {
	MinuteUsed  int `json:"minute_used"`
	MinuteLimit int `json:"minute_limit"`
	DayUsed     int `json:"day_used"`
	DayLimit    int `json:"day_limit"`
}

type window struct {
	count int
	start time.Time
	span  time.Duration
}

// reset clears the window if its span has elapsed.
func (w *window) reset(now time.Time) {
	if now.Sub(w.start) >= w.span {
		w.count = 0
		w.start = now
	}
}

func (w *window) remaining(now time.Time) time.Duration {
	return w.span - now.Sub(w.start)
}

// Limiter tracks external-call consumption against per-minute and per-day
// fixed windows. Both counters live behind one mutex so a reservation is a
// single atomic check-and-increment: two concurrent callers can never both
// take the last slot.
//
// Fixed windows admit up to 2x the ceiling across a window boundary burst;
// that imprecision is an accepted property of the policy, not a defect.
type Limiter struct {
	mu           sync.Mutex
	maxPerMinute int
	maxPerDay    int
	minute       window
	day          window
}

// NewLimiter creates a limiter with the given per-minute and per-day ceilings.
func NewLimiter(maxPerMinute, maxPerDay int, now time.Time) *Limiter {
	return &Limiter{
		maxPerMinute: maxPerMinute,
		maxPerDay:    maxPerDay,
		minute:       window{start: now, span: minuteWindow},
		day:          window{start: now, span: dayWindow},
	}
}

// TryReserve consumes one slot from both windows, or returns a
// *RateLimitedError carrying the wait for the tighter-binding window.
// No external call may be made without a prior successful reservation.
func (l *Limiter) TryReserve(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minute.reset(now)
	l.day.reset(now)

	if l.minute.count >= l.maxPerMinute {
		metrics.QuotaDenialsTotal.WithLabelValues("minute").Inc()
		return &RateLimitedError{RetryAfter: l.minute.remaining(now)}
	}
	if l.day.count >= l.maxPerDay {
		metrics.QuotaDenialsTotal.WithLabelValues("day").Inc()
		return &RateLimitedError{RetryAfter: l.day.remaining(now)}
	}

	l.minute.count++
	l.day.count++
	return nil
}

// Snapshot returns current usage for display. Windows are reset first so
// stale counts from an elapsed window are not reported.
func (l *Limiter) Snapshot(now time.Time) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minute.reset(now)
	l.day.reset(now)

	return Usage{
		MinuteUsed:  l.minute.count,
		MinuteLimit: l.maxPerMinute,
		DayUsed:     l.day.count,
		DayLimit:    l.maxPerDay,
	}
}
