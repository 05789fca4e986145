package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finassist_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_chat_requests_total",
			Help: "Total chat requests by answer source.",
		},
		[]string{"source"}, // cache, live, error
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "finassist_cache_hits_total",
			Help: "Total similarity cache hits.",
		},
	)

	QuotaDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_quota_denials_total",
			Help: "Total external-call reservations denied by window.",
		},
		[]string{"window"}, // minute, day
	)

	LLMCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_llm_calls_total",
			Help: "Total external LLM completions by status.",
		},
		[]string{"status"}, // ok, error
	)

	EngineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_engine_runs_total",
			Help: "Total engine runs by agent.",
		},
		[]string{"agent"}, // forecast, insights, reminder
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatRequestsTotal,
		CacheHitsTotal,
		QuotaDenialsTotal,
		LLMCallsTotal,
		EngineRunsTotal,
	)
}
