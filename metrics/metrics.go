// Package metrics exposes Prometheus collectors for the provisioning
// pipeline and the standalone server that serves them.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "odag"

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	serviceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_info",
			Help:      "Service identity, always 1.",
		},
		[]string{"service"},
	)

	provisioningOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "outcomes_total",
			Help:      "Total provisioning runs by terminal status.",
		},
		[]string{"status"},
	)

	provisioningDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "duration_seconds",
			Help:      "Duration of whole provisioning runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	appLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provisioning",
			Name:      "app_lookups_total",
			Help:      "Application metadata lookups by result.",
		},
		[]string{"result"},
	)

	engineSessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "session_duration_seconds",
			Help:      "Duration of navigation-registration engine sessions.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		serviceInfo,
		provisioningOutcomes,
		provisioningDuration,
		appLookups,
		engineSessionDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOutcome records one finished provisioning run.
func RecordOutcome(status string, duration time.Duration) {
	provisioningOutcomes.WithLabelValues(status).Inc()
	provisioningDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordAppLookup records one application metadata lookup result.
func RecordAppLookup(result string) {
	appLookups.WithLabelValues(result).Inc()
}

// RecordEngineSession records one navigation-registration session.
func RecordEngineSession(duration time.Duration, success bool) {
	result := "false"
	if success {
		result = "true"
	}
	engineSessionDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// MetricsServer serves the collectors on their own listener, separate from
// the API server.
type MetricsServer struct {
	srv *http.Server
}

// New builds the metrics server. The service name is exported through the
// service_info gauge.
func New(name, listenAddr string) (*MetricsServer, error) {
	serviceInfo.WithLabelValues(name).Set(1)
	return &MetricsServer{
		srv: &http.Server{
			Addr:    listenAddr,
			Handler: Handler(),
		},
	}, nil
}

// ListenAndServe blocks serving the metrics endpoint.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
