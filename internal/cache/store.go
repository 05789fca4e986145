package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Entry is one cached question/answer pair. Entries are immutable once
// stored; they only leave via eviction, owner clear, or TTL expiry.
type Entry struct {
	Owner      uuid.UUID `json:"owner"`
	Question   string    `json:"question"`
	Response   string    `json:"response"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps one Redis list per owner. Partitioning by key makes
// cross-owner isolation structural: a lookup can only ever read the list it
// derives from the owner ID. Redis serializes commands per key, which gives
// the required write ordering for same-owner eviction, and the TTL doubles
// as the inactivity cleanup.
type Store struct {
	client     redis.Cmdable
	threshold  float64
	maxEntries int
	ttl        time.Duration
}

// NewStore creates a similarity cache with the given match threshold,
// per-owner entry cap and inactivity TTL.
func NewStore(client redis.Cmdable, threshold float64, maxEntries int, ttl time.Duration) *Store {
	return &Store{
		client:     client,
		threshold:  threshold,
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func ownerKey(owner uuid.UUID) string {
	return "chatcache:" + owner.String()
}

// Lookup scans the owner's entries and returns the best match scoring at or
// above the threshold, or nil on a miss. Ties go to the newest entry.
func (s *Store) Lookup(ctx context.Context, owner uuid.UUID, question string) (*Entry, float64, error) {
	vals, err := s.client.LRange(ctx, ownerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("reading cache for owner: %w", err)
	}

	var best *Entry
	bestScore := 0.0

	for _, v := range vals {
		var entry Entry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			continue // skip malformed entries
		}
		score := Similarity(question, entry.Question)
		if score < s.threshold {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && entry.CreatedAt.After(best.CreatedAt)) {
			e := entry
			best = &e
			bestScore = score
		}
	}

	if best == nil {
		return nil, 0, nil
	}
	return best, bestScore, nil
}

// Store appends an entry to the owner's list, evicting oldest-first past the
// per-owner cap and refreshing the inactivity TTL.
func (s *Store) Store(ctx context.Context, owner uuid.UUID, question, response string, tokenCount int, now time.Time) error {
	entry := Entry{
		Owner:      owner,
		Question:   question,
		Response:   response,
		TokenCount: tokenCount,
		CreatedAt:  now,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	key := ownerKey(owner)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, int64(-s.maxEntries), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing cache entry for %s: %w", key, err)
	}
	return nil
}

// Clear removes every cached entry for the owner.
func (s *Store) Clear(ctx context.Context, owner uuid.UUID) error {
	if err := s.client.Del(ctx, ownerKey(owner)).Err(); err != nil {
		return fmt.Errorf("clearing cache for owner: %w", err)
	}
	return nil
}

// Count returns the owner's current entry count.
func (s *Store) Count(ctx context.Context, owner uuid.UUID) (int64, error) {
	n, err := s.client.LLen(ctx, ownerKey(owner)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
