// Package metrics exposes Prometheus-format metrics for the registry
// server on a dedicated listener.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// MetricsServer serves the /metrics endpoint.
type MetricsServer struct {
	name string
	srv  *http.Server
}

// New creates a metrics server bound to addr. The name is exported as the
// service label on the build info gauge.
func New(name, addr string) (*MetricsServer, error) {
	if addr == "" {
		return &MetricsServer{name: name}, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	metrics.GetOrCreateGauge(fmt.Sprintf(`service_info{service=%q}`, name), func() float64 { return 1 })

	return &MetricsServer{
		name: name,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the metrics endpoint. Returns
// http.ErrServerClosed after Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	if m.srv == nil {
		return nil
	}
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}

// IncRequest counts an API request by ledger operation and status code.
func IncRequest(operation string, status int) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`registry_requests_total{operation=%q,status="%d"}`, operation, status)).Inc()
}

// IncLedgerEvent counts an emitted ledger event by name.
func IncLedgerEvent(name string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`registry_ledger_events_total{event=%q}`, name)).Inc()
}

// ObserveRequestDuration records the handling latency of an API request.
func ObserveRequestDuration(operation string, d time.Duration) {
	metrics.GetOrCreateSummary(fmt.Sprintf(`registry_request_duration_seconds{operation=%q}`, operation)).Update(d.Seconds())
}
