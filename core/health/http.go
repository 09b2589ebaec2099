package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/auditbot/core/logger"
)

// Liveness reports that the process is running. No dependency checks.
//
//	mux.HandleFunc("GET /health/live", health.Liveness)
func Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ALIVE"))
}

// Readiness verifies every dependency. It answers "READY", or 503 when any check fails.
//
//	mux.Handle("GET /health/ready", health.Readiness(log,
//		redis.Healthcheck(client),
//		bot.Healthcheck,
//	))
func Readiness(log *slog.Logger, fn ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, f := range fn {
			if err := f(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "Readiness check failed", logger.Component("health"), logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("Service Unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}

// Checker produces a health snapshot on demand.
type Checker interface {
	Check(ctx context.Context) Snapshot
}

// StatusHandler serves a fresh snapshot as JSON; 503 when unhealthy.
func StatusHandler(c Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := c.Check(r.Context())

		code := http.StatusOK
		if s.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(s)
	}
}

// NewHandler mounts the health routes and /metrics on a new ServeMux.
// gatherer may be nil to skip /metrics.
func NewHandler(log *slog.Logger, c Checker, gatherer prometheus.Gatherer, ready ...func(context.Context) error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", Liveness)
	mux.Handle("GET /health/ready", Readiness(log, ready...))
	mux.Handle("GET /health/status", StatusHandler(c))
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}
