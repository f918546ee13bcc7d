package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the prometheus registry over HTTP for scrapes that
// outlive a single analysis (history/trends deployments).
type MetricsServer struct {
	addr   string
	server *http.Server
}

func NewMetricsServer(addr string) *MetricsServer {
	return &MetricsServer{addr: addr}
}

func (s *MetricsServer) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("metrics server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	return nil
}

func (s *MetricsServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
