// Package metrics exposes registry operation counters and serves the
// Prometheus text exposition on a dedicated listener.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	instancesCreatedFresh         = metrics.NewCounter(`registry_instances_created_total{strategy="fresh"}`)
	instancesCreatedDeterministic = metrics.NewCounter(`registry_instances_created_total{strategy="deterministic"}`)
	instanceCreateFailures        = metrics.NewCounter(`registry_instance_create_failures_total`)
	metadataUpdates               = metrics.NewCounter(`registry_metadata_updates_total`)
	instancesDestroyed            = metrics.NewCounter(`registry_instances_destroyed_total`)
)

// IncInstanceCreated records a successful instance creation for the given strategy.
func IncInstanceCreated(deterministic bool) {
	if deterministic {
		instancesCreatedDeterministic.Inc()
	} else {
		instancesCreatedFresh.Inc()
	}
}

// IncInstanceCreateFailure records a creation attempt that allocated no identifier.
func IncInstanceCreateFailure() {
	instanceCreateFailures.Inc()
}

// IncMetadataUpdate records an authorized metadata refresh.
func IncMetadataUpdate() {
	metadataUpdates.Inc()
}

// IncInstanceDestroyed records an authorized destroy call.
func IncInstanceDestroyed() {
	instancesDestroyed.Inc()
}

// MetricsServer serves /metrics for Prometheus scrapes.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server bound to listenAddr. The service name is
// published through the service_info gauge so scrapes can tell binaries apart.
func New(name, listenAddr string) (*MetricsServer, error) {
	if listenAddr == "" {
		return nil, errors.New("metrics listen address is empty")
	}

	metrics.GetOrCreateGauge(fmt.Sprintf(`service_info{name=%q}`, name), func() float64 { return 1 })

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving scrapes until Shutdown or listener failure.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
