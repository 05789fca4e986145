package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	NATS   NATSConfig
	JWT    JWTConfig
	LLM    LLMConfig
	Quota  QuotaConfig
	Cache  CacheConfig
	Engine EngineConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL string
}

type JWTConfig struct {
	AccessSecret string
}

type LLMConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// QuotaConfig bounds calls to the external LLM service. The defaults sit
// below the provider's advertised free-tier limits to leave a safety margin.
type QuotaConfig struct {
	MaxPerMinute int
	MaxPerDay    int
}

type CacheConfig struct {
	SimilarityThreshold float64
	MaxEntriesPerOwner  int
	TTL                 time.Duration
}

type EngineConfig struct {
	ContextWindowDays   int
	ReminderHorizonDays int
	HistoryTurns        int
	TrendThreshold      float64
	HighSpendRatio      float64
	StoreTimeout        time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               k.String("server.host"),
			Port:               k.Int("server.port"),
			CORSAllowedOrigins: splitList(k.String("server.cors.allowed.origins")),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		JWT: JWTConfig{
			AccessSecret: k.String("jwt.access.secret"),
		},
		LLM: LLMConfig{
			BaseURL:   k.String("llm.base.url"),
			APIKey:    k.String("llm.api.key"),
			Model:     k.String("llm.model"),
			MaxTokens: k.Int("llm.max.tokens"),
		},
		Quota: QuotaConfig{
			MaxPerMinute: k.Int("quota.max.per.minute"),
			MaxPerDay:    k.Int("quota.max.per.day"),
		},
		Cache: CacheConfig{
			SimilarityThreshold: k.Float64("cache.similarity.threshold"),
			MaxEntriesPerOwner:  k.Int("cache.max.entries.per.owner"),
		},
		Engine: EngineConfig{
			ContextWindowDays:   k.Int("engine.context.window.days"),
			ReminderHorizonDays: k.Int("engine.reminder.horizon.days"),
			HistoryTurns:        k.Int("engine.history.turns"),
			TrendThreshold:      k.Float64("engine.trend.threshold"),
			HighSpendRatio:      k.Float64("engine.high.spend.ratio"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "finassist"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "finassist"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.3-70b-versatile"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1200
	}
	if cfg.Quota.MaxPerMinute == 0 {
		cfg.Quota.MaxPerMinute = 25
	}
	if cfg.Quota.MaxPerDay == 0 {
		cfg.Quota.MaxPerDay = 14000
	}
	if cfg.Cache.SimilarityThreshold == 0 {
		cfg.Cache.SimilarityThreshold = 0.80
	}
	if cfg.Cache.MaxEntriesPerOwner == 0 {
		cfg.Cache.MaxEntriesPerOwner = 50
	}
	if cfg.Engine.ContextWindowDays == 0 {
		cfg.Engine.ContextWindowDays = 30
	}
	if cfg.Engine.ReminderHorizonDays == 0 {
		cfg.Engine.ReminderHorizonDays = 30
	}
	if cfg.Engine.HistoryTurns == 0 {
		cfg.Engine.HistoryTurns = 5
	}
	if cfg.Engine.TrendThreshold == 0 {
		cfg.Engine.TrendThreshold = 0.10
	}
	if cfg.Engine.HighSpendRatio == 0 {
		cfg.Engine.HighSpendRatio = 1.3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	llmTimeoutStr := k.String("llm.timeout")
	if llmTimeoutStr == "" {
		llmTimeoutStr = "30s"
	}
	cfg.LLM.Timeout, err = time.ParseDuration(llmTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing llm timeout: %w", err)
	}

	cacheTTLStr := k.String("cache.ttl")
	if cacheTTLStr == "" {
		cacheTTLStr = "168h"
	}
	cfg.Cache.TTL, err = time.ParseDuration(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("parsing cache ttl: %w", err)
	}

	storeTimeoutStr := k.String("engine.store.timeout")
	if storeTimeoutStr == "" {
		storeTimeoutStr = "5s"
	}
	cfg.Engine.StoreTimeout, err = time.ParseDuration(storeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing store timeout: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
