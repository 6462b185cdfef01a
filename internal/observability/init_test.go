package observability_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/internal/observability"
)

func TestInit_NoopWithoutExporters(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.LogOutput = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Nil(t, providers.MetricsHandler)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_PrometheusHandlerServesInjectionMetrics(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.LogOutput = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	im, err := observability.NewInjectionMetrics(providers.Meter)
	require.NoError(t, err)

	im.RecordInjection(context.Background(), "main.js", 2, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "target_info")
	assert.Contains(t, body, "autoimport_inject_bindings")
	assert.Contains(t, body, `module="main.js"`)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "api-key=secret", want: map[string]string{"api-key": "secret"}},
		{name: "multiple with spaces", raw: " a = 1 , b=2", want: map[string]string{"a": "1", "b": "2"}},
		{name: "no separator", raw: "garbage", want: nil},
		{name: "mixed", raw: "garbage,x=y", want: map[string]string{"x": "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.raw))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "k=v")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("AUTOIMPORT_ENV", "staging")

	cfg := observability.ConfigFromEnv(observability.DefaultConfig())

	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, map[string]string{"k": "v"}, cfg.OTLPHeaders)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "autoimport", cfg.ServiceName)
}
