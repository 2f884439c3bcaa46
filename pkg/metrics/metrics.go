// Package metrics exposes the process's Prometheus metrics over HTTP.
// Metrics are defined in the packages that record them (client, ratelimit,
// pagination, filter) and registered with the default registry via promauto.
//
// Request metrics (pkg/client):
//   - asc_requests_total{endpoint, status}
//   - asc_request_duration_seconds{endpoint}
//   - asc_errors_total{class}
//   - asc_retries_total{error_class}
//   - asc_retry_backoff_seconds{error_class}
//   - asc_retry_exhausted_total{error_class}
//
// Quota metrics (pkg/ratelimit):
//   - asc_rate_limit_remaining
//   - asc_rate_limit_blocks_total
//   - asc_rate_limit_throttles_total
//
// Aggregation metrics (pkg/pagination, pkg/filter):
//   - asc_pagination_pages_total
//   - asc_pagination_items
//   - asc_pagination_failures_total{reason}
//   - asc_filter_records_dropped_total{stage}
//
// Example queries:
//
//	# Hourly quota headroom
//	asc_rate_limit_remaining < 100
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(asc_request_duration_seconds_bucket[5m]))
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the registerer all asc_* metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// shutdownTimeout bounds graceful shutdown of the metrics listener.
const shutdownTimeout = 5 * time.Second

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMux returns a mux serving /metrics and /health.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Metrics listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics listener: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		logger.Info().Msg("Metrics listener stopped")
		return nil
	}
}
