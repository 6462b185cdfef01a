package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// DiagnosticsServer exposes health, readiness, and Prometheus metrics
// endpoints next to a stdio server.
type DiagnosticsServer struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// NewDiagnosticsServer starts an HTTP server at addr with /healthz, /readyz,
// and, when metrics is non-nil, /metrics. Requests are traced through
// [HTTPMiddleware].
func NewDiagnosticsServer(
	addr string, metrics http.Handler, tracer trace.Tracer, logger *slog.Logger, checks ...ReadyCheck,
) (*DiagnosticsServer, error) {
	mux := http.NewServeMux()

	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: HTTPMiddleware(tracer, logger, mux)}
	ds := &DiagnosticsServer{server: srv, listener: listener, logger: logger}

	go ds.serve()

	return ds, nil
}

func (d *DiagnosticsServer) serve() {
	err := d.server.Serve(d.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.logger.Warn("diagnostics server stopped", "error", err)
	}
}

// Addr returns the address the server is listening on.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close gracefully shuts down the diagnostics server.
func (d *DiagnosticsServer) Close(ctx context.Context) error {
	err := d.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}
