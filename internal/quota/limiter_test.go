package quota

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUpToMinuteCeiling(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter(25, 14000, now)

	for i := 0; i < 25; i++ {
		require.NoError(t, l.TryReserve(now), "reservation %d should be allowed", i+1)
	}

	err := l.TryReserve(now)
	require.Error(t, err)

	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.LessOrEqual(t, rl.RetryAfterSeconds(), 60)
	assert.GreaterOrEqual(t, rl.RetryAfterSeconds(), 1)
}

func TestLimiter_MinuteWindowResets(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter(2, 100, now)

	require.NoError(t, l.TryReserve(now))
	require.NoError(t, l.TryReserve(now))
	require.Error(t, l.TryReserve(now))

	// One full window later the minute counter starts over
	later := now.Add(time.Minute)
	require.NoError(t, l.TryReserve(later))
}

func TestLimiter_DailyCeilingBindsAfterMinuteReset(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter(10, 3, now)

	require.NoError(t, l.TryReserve(now))
	require.NoError(t, l.TryReserve(now))
	require.NoError(t, l.TryReserve(now))

	// Minute window has room but the day ceiling is hit
	err := l.TryReserve(now)
	require.Error(t, err)

	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Greater(t, rl.RetryAfterSeconds(), 60, "day window wait should exceed a minute")

	// Still denied a minute later
	require.Error(t, l.TryReserve(now.Add(2*time.Minute)))
}

func TestLimiter_ConcurrentReservationsNeverOverAdmit(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter(25, 14000, now)

	const callers = 100
	var wg sync.WaitGroup
	allowed := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryReserve(now) == nil {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	assert.Len(t, allowed, 25)
}

func TestLimiter_Snapshot(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter(25, 14000, now)

	require.NoError(t, l.TryReserve(now))
	require.NoError(t, l.TryReserve(now))

	usage := l.Snapshot(now)
	assert.Equal(t, 2, usage.MinuteUsed)
	assert.Equal(t, 25, usage.MinuteLimit)
	assert.Equal(t, 2, usage.DayUsed)
	assert.Equal(t, 14000, usage.DayLimit)

	// Minute usage clears after the window, day usage persists
	usage = l.Snapshot(now.Add(time.Minute))
	assert.Equal(t, 0, usage.MinuteUsed)
	assert.Equal(t, 2, usage.DayUsed)
}
