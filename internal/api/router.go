package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/finassist-platform/finassist/internal/database"
	mw "github.com/finassist-platform/finassist/internal/middleware"
	inats "github.com/finassist-platform/finassist/internal/nats"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Chat handlers
	AskChat          http.HandlerFunc
	ChatHistory      http.HandlerFunc
	ClearChatHistory http.HandlerFunc
	QuotaUsage       http.HandlerFunc

	// Engine handlers
	RunForecast http.HandlerFunc
	RunInsights http.HandlerFunc

	// Reminder handlers
	ListReminders http.HandlerFunc
	PayBill       http.HandlerFunc

	// Audit trail
	ListAgentResults http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	ChatRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, redisClient *goredis.Client, natsClient *inats.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB, Redis, NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"redis":    "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				health["redis"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["redis"] = "not configured"
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1: everything is owner-scoped and sits behind auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/chat", func(r chi.Router) {
				if cfg.ChatRateLimiter != nil {
					r.With(cfg.ChatRateLimiter).Post("/", h.AskChat)
				} else {
					r.Post("/", h.AskChat)
				}
				r.Get("/history", h.ChatHistory)
				r.Delete("/history", h.ClearChatHistory)
			})

			r.Post("/forecast", h.RunForecast)
			r.Post("/insights", h.RunInsights)

			r.Get("/reminders", h.ListReminders)
			r.Post("/bills/{billID}/pay", h.PayBill)

			r.Get("/quota", h.QuotaUsage)
			r.Get("/results", h.ListAgentResults)
		})
	})

	return r
}
