package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "autoimport.requests.total"
	metricRequestDuration  = "autoimport.request.duration.seconds"
	metricErrorsTotal      = "autoimport.errors.total"
	metricInflightRequests = "autoimport.inflight.requests"

	metricInjectCalls    = "autoimport.inject.calls.total"
	metricInjectBindings = "autoimport.inject.bindings.total"
	metricInjectDuration = "autoimport.inject.duration.seconds"

	attrOp      = "op"
	attrStatus  = "status"
	attrModule  = "module"
	attrChanged = "changed"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// requestBuckets covers 100µs to 5s: stdio requests are small, single-file
// rewrites.
var requestBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics of
// server requests.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	set := instrumentSet{meter: mt}

	rm := &REDMetrics{
		requestsTotal:    set.count(metricRequestsTotal, "Total number of requests", "{request}"),
		requestDuration:  set.seconds(metricRequestDuration, "Request duration in seconds"),
		errorsTotal:      set.count(metricErrorsTotal, "Total number of errors", "{error}"),
		inflightRequests: set.gauge(metricInflightRequests, "Number of in-flight requests", "{request}"),
	}

	err := set.err()
	if err != nil {
		return nil, fmt.Errorf("red metrics: %w", err)
	}

	return rm, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// InjectionMetrics records engine-level injection activity.
type InjectionMetrics struct {
	calls    metric.Int64Counter
	bindings metric.Int64Counter
	duration metric.Float64Histogram
}

// NewInjectionMetrics creates the injection instruments from the given meter.
func NewInjectionMetrics(mt metric.Meter) (*InjectionMetrics, error) {
	set := instrumentSet{meter: mt}

	im := &InjectionMetrics{
		calls:    set.count(metricInjectCalls, "Total number of inject calls", "{call}"),
		bindings: set.count(metricInjectBindings, "Total number of injected bindings", "{binding}"),
		duration: set.seconds(metricInjectDuration, "Inject call duration in seconds"),
	}

	err := set.err()
	if err != nil {
		return nil, fmt.Errorf("injection metrics: %w", err)
	}

	return im, nil
}

// RecordInjection records one inject call. Only the bindings counter carries
// the module id.
func (im *InjectionMetrics) RecordInjection(ctx context.Context, moduleID string, injected int, duration time.Duration) {
	changed := metric.WithAttributes(attribute.Bool(attrChanged, injected > 0))

	im.calls.Add(ctx, 1, changed)
	im.duration.Record(ctx, duration.Seconds(), changed)

	if injected > 0 {
		im.bindings.Add(ctx, int64(injected), metric.WithAttributes(attribute.String(attrModule, moduleID)))
	}
}

// instrumentSet creates the instruments of one metrics struct and collects
// every creation failure.
type instrumentSet struct {
	meter metric.Meter
	errs  []error
}

func (s *instrumentSet) count(name, desc, unit string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	s.track(name, err)

	return c
}

func (s *instrumentSet) gauge(name, desc, unit string) metric.Int64UpDownCounter {
	g, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	s.track(name, err)

	return g
}

// seconds creates a duration histogram over requestBuckets.
func (s *instrumentSet) seconds(name, desc string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestBuckets...),
	)
	s.track(name, err)

	return h
}

func (s *instrumentSet) track(name string, err error) {
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: %w", name, err))
	}
}

func (s *instrumentSet) err() error {
	return errors.Join(s.errs...)
}
