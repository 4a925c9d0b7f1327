package metrics

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CreateMetricsServer registers the collectors on a dedicated registry and
// serves them on addr under /metrics. The listener is bound before returning
// so address errors surface here; the server's Addr holds the bound address.
func CreateMetricsServer(addr string, collectors ...prometheus.Collector) (*http.Server, error) {
	registry := prometheus.NewRegistry()
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, pkgerrors.WithMessage(err, "failed to register collector")
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "failed to start metrics server")
	}

	server := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", "error", err)
		}
	}()

	slog.Info("Metrics server listening", "addr", server.Addr)
	return server, nil
}
