// Package metrics holds the Prometheus collectors of the license server.
//
// All collectors are registered against the default registry and exposed by
// Handler on the path configured as metrics.path (default /metrics).
//
// Check-in metrics are labelled by outcome only ("valid", "not found",
// "IP quota exceeded", "error"); license keys and client IPs are never used as
// labels so cardinality stays fixed.
package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OutcomeError labels checks that failed on a storage fault.
const OutcomeError = "error"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lks_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lks_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	LicenseChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lks_license_checks_total",
			Help: "Total number of license check-ins, by outcome.",
		},
		[]string{"outcome"},
	)

	LicenseCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lks_license_check_duration_seconds",
			Help:    "Duration of a license check-in including lock wait and the usage log write.",
			Buckets: prometheus.DefBuckets,
		},
	)

	LicensesGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lks_licenses_generated_total",
			Help: "Total number of license keys generated.",
		},
	)
)

var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "lks_db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// ObserveCheck records one check-in outcome.
func ObserveCheck(outcome string, elapsed time.Duration) {
	LicenseChecksTotal.WithLabelValues(outcome).Inc()
	LicenseCheckDuration.Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// StartDBStatsCollector samples the connection pool every interval until ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration, log *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := db.PingContext(ctx); err != nil {
					log.Warn("db stats collector: database unreachable", zap.Error(err))
					continue
				}
				DBOpenConnections.Set(float64(db.Stats().OpenConnections))
			}
		}
	}()
}
