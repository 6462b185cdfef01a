package autoimport

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Recorder receives one observation per InjectImports call.
type Recorder interface {
	RecordInjection(ctx context.Context, moduleID string, injected int, duration time.Duration)
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for registration warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used to span InjectImports and DetectImports.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Context) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithMetrics sets the recorder notified after each injection.
func WithMetrics(recorder Recorder) Option {
	return func(c *Context) {
		c.recorder = recorder
	}
}
