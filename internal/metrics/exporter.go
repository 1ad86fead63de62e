package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Exporter exposes collector metrics over an HTTP endpoint.
type Exporter struct {
	server  *http.Server
	metrics *CollectorMetrics
	logger  *logrus.Logger
	port    string
}

func NewExporter(port string, logger *logrus.Logger) *Exporter {
	metrics := NewCollectorMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return &Exporter{
		server:  server,
		metrics: metrics,
		logger:  logger,
		port:    port,
	}
}

// Start serves the metrics endpoint until ctx is cancelled.
func (e *Exporter) Start(ctx context.Context) error {
	e.logger.Infof("Starting metrics exporter on port %s", e.port)

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Errorf("Failed to start metrics exporter: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e.logger.Info("Shutting down metrics exporter...")
	return e.server.Shutdown(shutdownCtx)
}

// Stop shuts the exporter down immediately.
func (e *Exporter) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.server.Shutdown(ctx)
}

// GetMetrics returns the metric set served by this exporter.
func (e *Exporter) GetMetrics() *CollectorMetrics {
	return e.metrics
}
