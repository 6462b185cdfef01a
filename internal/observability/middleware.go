package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrErrorType = "error.type"

	// ErrTypePanic classifies recovered panics.
	ErrTypePanic = "panic"
	// ErrTypeInternal classifies handler failures.
	ErrTypeInternal = "internal"
	// ErrTypeInvalidInput classifies rejected requests.
	ErrTypeInvalidInput = "invalid_input"

	eventPanicStack = "panic.stack"
)

// RecordSpanError marks span as failed with the given error classification.
func RecordSpanError(span trace.Span, err error, errType string) {
	span.SetAttributes(attribute.String(attrErrorType, errType))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// statusWriter wraps [http.ResponseWriter] to capture the status code.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
	written    bool
}

// WriteHeader captures the status code before delegating to the wrapped writer.
func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if !sw.written {
		sw.statusCode = http.StatusOK
		sw.written = true
	}

	n, err := sw.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// HTTPMiddleware returns an [http.Handler] that creates a server span per
// request named "METHOD /path" and turns handler panics into 500 responses.
func HTTPMiddleware(tracer trace.Tracer, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parentCtx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: rw}

		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			stack := string(debug.Stack())

			span.AddEvent(eventPanicStack, trace.WithAttributes(attribute.String("stack", stack)))
			RecordSpanError(span, fmt.Errorf("panic: %v", recovered), ErrTypePanic)
			logger.ErrorContext(ctx, "http handler panic", "path", hr.URL.Path, "panic", recovered)

			if !sw.written {
				sw.WriteHeader(http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(sw, hr.WithContext(ctx))

		span.SetAttributes(semconv.HTTPResponseStatusCode(sw.statusCode))

		if sw.statusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
		}
	})
}
