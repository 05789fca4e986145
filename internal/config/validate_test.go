package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "finassist", Password: "secret", Name: "finassist"},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		JWT:    JWTConfig{AccessSecret: strings.Repeat("a", 32)},
		Quota:  QuotaConfig{MaxPerMinute: 25, MaxPerDay: 14000},
		Cache:  CacheConfig{SimilarityThreshold: 0.80, MaxEntriesPerOwner: 50},
		Engine: EngineConfig{HistoryTurns: 5},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestValidate_MissingDBPassword(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestValidate_QuotaOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Quota.MaxPerDay = 10
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUOTA_MAX_PER_DAY")
}

func TestValidate_SimilarityThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.SimilarityThreshold = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_SIMILARITY_THRESHOLD")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = ""
	cfg.DB.Password = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}
