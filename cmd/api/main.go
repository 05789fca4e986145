package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/finassist-platform/finassist/internal/agentresult"
	"github.com/finassist-platform/finassist/internal/api"
	"github.com/finassist-platform/finassist/internal/auth"
	"github.com/finassist-platform/finassist/internal/cache"
	"github.com/finassist-platform/finassist/internal/chat"
	"github.com/finassist-platform/finassist/internal/config"
	"github.com/finassist-platform/finassist/internal/database"
	"github.com/finassist-platform/finassist/internal/finctx"
	"github.com/finassist-platform/finassist/internal/forecast"
	"github.com/finassist-platform/finassist/internal/insights"
	"github.com/finassist-platform/finassist/internal/ledger"
	"github.com/finassist-platform/finassist/internal/llm"
	"github.com/finassist-platform/finassist/internal/middleware"
	inats "github.com/finassist-platform/finassist/internal/nats"
	"github.com/finassist-platform/finassist/internal/quota"
	iredis "github.com/finassist-platform/finassist/internal/redis"
	"github.com/finassist-platform/finassist/internal/reminder"
	"github.com/finassist-platform/finassist/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := slog.Default()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), "migrations"); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS JetStream
	natsClient, err := inats.NewClient(ctx, cfg.NATS)
	if err != nil {
		slog.Error("connecting to nats", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	// Auth
	jwtManager := auth.NewJWTManager(cfg.JWT.AccessSecret)

	// Audit trail: publish on the hot path, persist via a durable consumer
	resultRepo := agentresult.NewRepository(pool)
	publisher := inats.NewPublisher(natsClient.JetStream())
	sink := agentresult.NewNATSSink(publisher, logger)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumer := agentresult.NewConsumer(resultRepo, inats.NewConsumerManager(natsClient.JetStream()))
	go func() {
		if err := consumer.Start(consumerCtx); err != nil {
			slog.Error("agent result consumer stopped", "error", err)
		}
	}()

	// Engine wiring
	ledgerRepo := ledger.NewRepository(pool)
	limiter := quota.NewLimiter(cfg.Quota.MaxPerMinute, cfg.Quota.MaxPerDay, time.Now().UTC())
	cacheStore := cache.NewStore(redisClient, cfg.Cache.SimilarityThreshold, cfg.Cache.MaxEntriesPerOwner, cfg.Cache.TTL)
	aggregator := finctx.NewAggregator(ledgerRepo, cfg.Engine.ContextWindowDays, cfg.Engine.ReminderHorizonDays, cfg.Engine.StoreTimeout)
	completer := llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	})

	// Chat
	chatLogs := chat.NewLogRepository(pool)
	orchestrator := chat.NewOrchestrator(limiter, cacheStore, aggregator, completer, chatLogs, sink, cfg.Engine.HistoryTurns, logger)
	chatHandler := chat.NewHandler(orchestrator)

	// Forecast
	forecastSvc := forecast.NewService(ledgerRepo, forecast.NewEngine(cfg.Engine.TrendThreshold), sink, cfg.Engine.StoreTimeout, logger)
	forecastHandler := forecast.NewHandler(forecastSvc)

	// Insights
	insightsSvc := insights.NewService(ledgerRepo, insights.NewEngine(cfg.Engine.HighSpendRatio), limiter, completer, sink, cfg.Engine.StoreTimeout, logger)
	insightsHandler := insights.NewHandler(insightsSvc)

	// Reminders
	reminderSvc := reminder.NewService(ledgerRepo, sink, cfg.Engine.StoreTimeout, logger)
	reminderHandler := reminder.NewHandler(reminderSvc)

	resultHandler := agentresult.NewHandler(resultRepo)

	// Per-IP rate limit on the chat route, on top of the LLM quota
	chatRateLimiter := middleware.NewRateLimiter(redisClient, 30, 60)

	router := api.NewRouter(pool, redisClient, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		ChatRateLimiter:    chatRateLimiter.Middleware,
	}, api.HandlerSet{
		AskChat:          chatHandler.Ask,
		ChatHistory:      chatHandler.History,
		ClearChatHistory: chatHandler.ClearHistory,
		QuotaUsage:       chatHandler.Quota,

		RunForecast: forecastHandler.Run,
		RunInsights: insightsHandler.Run,

		ListReminders: reminderHandler.List,
		PayBill:       reminderHandler.Pay,

		ListAgentResults: resultHandler.List,

		AuthMiddleware: auth.Middleware(jwtManager),
	})

	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
