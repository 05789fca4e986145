package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}

	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Quota ceilings must be positive, and sane relative to each other
	if c.Quota.MaxPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("QUOTA_MAX_PER_MINUTE must be positive, got %d", c.Quota.MaxPerMinute))
	}
	if c.Quota.MaxPerDay < c.Quota.MaxPerMinute {
		errs = append(errs, fmt.Sprintf("QUOTA_MAX_PER_DAY (%d) must be at least QUOTA_MAX_PER_MINUTE (%d)",
			c.Quota.MaxPerDay, c.Quota.MaxPerMinute))
	}

	if c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("CACHE_SIMILARITY_THRESHOLD must be in (0,1], got %v", c.Cache.SimilarityThreshold))
	}
	if c.Cache.MaxEntriesPerOwner < 1 {
		errs = append(errs, fmt.Sprintf("CACHE_MAX_ENTRIES_PER_OWNER must be positive, got %d", c.Cache.MaxEntriesPerOwner))
	}

	if c.Engine.HistoryTurns < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_HISTORY_TURNS must be positive, got %d", c.Engine.HistoryTurns))
	}

	// LLM API key: warn only, chat degrades to upstream failures without it
	if c.LLM.APIKey == "" {
		slog.Warn("LLM_API_KEY is empty, external completions will fail")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
