package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/autoimport/internal/observability"
)

var errNotReady = errors.New("not ready")

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var body map[string]any

	err := json.Unmarshal(data, &body)
	require.NoError(t, err)

	return body
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeBody(t, rec.Body.Bytes())["status"])
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	pass := observability.ReadyCheck{Name: "registry", Check: func(context.Context) error { return nil }}
	fail := observability.ReadyCheck{Name: "config", Check: func(context.Context) error { return errNotReady }}

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		observability.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		observability.ReadyHandler(pass).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decodeBody(t, rec.Body.Bytes())["status"])
	})

	t.Run("one fails", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		observability.ReadyHandler(pass, fail).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		body := decodeBody(t, rec.Body.Bytes())
		assert.Equal(t, "unavailable", body["status"])
		assert.Equal(t, []any{"config"}, body["failed"])
	})
}

func TestDiagnosticsServer(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(rw, "# metrics\n")
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ds, err := observability.NewDiagnosticsServer("127.0.0.1:0", metrics, nooptrace.NewTracerProvider().Tracer("test"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, ds.Close(context.Background()))
	})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+ds.Addr()+path, http.NoBody)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, body, path)
	}
}
