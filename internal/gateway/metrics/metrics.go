// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/evamind/gateway/pkg/httpx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "HTTP requests handled, by route pattern and status code.",
	}, []string{"route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_tokens_issued_total",
		Help: "Access tokens minted through the client-credentials grant.",
	})

	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_auth_failures_total",
		Help: "Rejected authentication and authorization attempts by reason.",
	}, []string{"reason"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_rate_limited_total",
		Help: "Calls rejected by the per-client rate limiter.",
	})

	RateLimitErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_rate_limit_errors_total",
		Help: "Rate limiter backend failures. The affected calls were allowed.",
	})

	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_audit_failures_total",
		Help: "Request ledger writes that failed.",
	})

	AuditDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_audit_dropped_total",
		Help: "Request ledger entries dropped because the audit logger was closed.",
	})

	DownstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_downstream_duration_seconds",
		Help:    "Latency of proxied downstream calls by outcome.",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
	}, []string{"outcome"})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request counts and latency under the matched route
// pattern, falling back to the raw path for unmatched requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := httpx.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc()
		RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

var poolOnce sync.Once

// RegisterPgxPoolMetrics exposes connection pool statistics. Only the first
// call registers collectors.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	poolOnce.Do(func() {
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "gateway_pgxpool_acquired_conns",
				Help: "Connections currently acquired from the pool.",
			}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "gateway_pgxpool_idle_conns",
				Help: "Idle connections in the pool.",
			}, func() float64 { return float64(pool.Stat().IdleConns()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "gateway_pgxpool_total_conns",
				Help: "Total connections in the pool.",
			}, func() float64 { return float64(pool.Stat().TotalConns()) }),
		)
	})
}
