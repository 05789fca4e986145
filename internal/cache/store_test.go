package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, maxEntries int) *Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, 0.80, maxEntries, 7*24*time.Hour)
}

func TestStore_LookupExactMatch(t *testing.T) {
	store := setupStore(t, 50)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now()

	require.NoError(t, store.Store(ctx, owner, "how much did I spend on groceries", "You spent $420 on groceries.", 120, now))

	entry, score, err := store.Lookup(ctx, owner, "how much did I spend on groceries")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "You spent $420 on groceries.", entry.Response)
	assert.Equal(t, 120, entry.TokenCount)
}

func TestStore_LookupAllStopwordQuestionHits(t *testing.T) {
	store := setupStore(t, 50)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, store.Store(ctx, owner, "How much did I have?", "You have 1800.00 left this month.", 30, time.Now()))

	entry, score, err := store.Lookup(ctx, owner, "How much did I have?")
	require.NoError(t, err)
	require.NotNil(t, entry, "an identical repeat must hit even when every word is a stopword")
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "You have 1800.00 left this month.", entry.Response)
}

func TestStore_LookupBelowThresholdMisses(t *testing.T) {
	store := setupStore(t, 50)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, store.Store(ctx, owner, "how much did I spend on groceries", "answer", 10, time.Now()))

	entry, _, err := store.Lookup(ctx, owner, "when is my rent due")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_OwnersAreIsolated(t *testing.T) {
	store := setupStore(t, 50)
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()

	require.NoError(t, store.Store(ctx, ownerA, "groceries spending total", "owner A answer", 10, time.Now()))

	entry, _, err := store.Lookup(ctx, ownerB, "groceries spending total")
	require.NoError(t, err)
	assert.Nil(t, entry, "owner B must never see owner A's entries")
}

func TestStore_EvictsOldestPastCap(t *testing.T) {
	store := setupStore(t, 2)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now()

	require.NoError(t, store.Store(ctx, owner, "first unique question alpha", "a1", 1, now))
	require.NoError(t, store.Store(ctx, owner, "second unique question beta", "a2", 1, now.Add(time.Second)))
	require.NoError(t, store.Store(ctx, owner, "third unique question gamma", "a3", 1, now.Add(2*time.Second)))

	count, err := store.Count(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Oldest entry is gone
	entry, _, err := store.Lookup(ctx, owner, "first unique question alpha")
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Newer entries survive
	entry, _, err = store.Lookup(ctx, owner, "third unique question gamma")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "a3", entry.Response)
}

func TestStore_TieBreaksToNewestEntry(t *testing.T) {
	store := setupStore(t, 50)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now()

	require.NoError(t, store.Store(ctx, owner, "groceries total this month", "older answer", 1, now))
	require.NoError(t, store.Store(ctx, owner, "groceries total this month", "newer answer", 1, now.Add(time.Minute)))

	entry, score, err := store.Lookup(ctx, owner, "groceries total this month")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "newer answer", entry.Response)
}

func TestStore_Clear(t *testing.T) {
	store := setupStore(t, 50)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, store.Store(ctx, owner, "groceries spending total", "answer", 1, time.Now()))
	require.NoError(t, store.Clear(ctx, owner))

	count, err := store.Count(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}
