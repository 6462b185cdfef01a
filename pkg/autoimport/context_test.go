package autoimport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/autoimport/pkg/autoimport"
	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

func newContext(t *testing.T, cfg autoimport.Config, opts ...autoimport.Option) *autoimport.Context {
	t.Helper()

	engine, err := autoimport.New(cfg, opts...)
	require.NoError(t, err)

	return engine
}

func fooBarConfig() autoimport.Config {
	return autoimport.Config{Imports: []registry.Binding{{Name: "fooBar", From: "test-id"}}}
}

func TestInjectImports_Basic(t *testing.T) {
	t.Parallel()

	engine := newContext(t, fooBarConfig())

	res, err := engine.InjectImports(context.Background(), "console.log(fooBar())", "")
	require.NoError(t, err)

	assert.Equal(t, "import { fooBar } from 'test-id';\nconsole.log(fooBar())", res.Code)
	assert.True(t, res.Changed())
	require.Len(t, res.Injected, 1)
	assert.Equal(t, "fooBar", res.Injected[0].Name)
}

func TestInjectImports_ReExportUnchanged(t *testing.T) {
	t.Parallel()

	engine := newContext(t, fooBarConfig())
	src := `export { fooBar } from "test-id"`

	res, err := engine.InjectImports(context.Background(), src, "")
	require.NoError(t, err)

	assert.Equal(t, src, res.Code)
	assert.False(t, res.Changed())
}

func TestInjectImports_MergeExisting(t *testing.T) {
	t.Parallel()

	cfg := fooBarConfig()
	cfg.MergeExisting = true

	engine := newContext(t, cfg)

	res, err := engine.InjectImports(context.Background(), "import { foo } from 'test-id'\nconsole.log(fooBar())", "")
	require.NoError(t, err)

	assert.Equal(t, "import { fooBar, foo } from 'test-id'\nconsole.log(fooBar())", res.Code)
}

func TestInjectImports_InjectAtEnd(t *testing.T) {
	t.Parallel()

	cfg := fooBarConfig()
	cfg.InjectAtEnd = true

	engine := newContext(t, cfg)

	res, err := engine.InjectImports(context.Background(), "import { foo } from 'foo'\nconsole.log(fooBar())", "")
	require.NoError(t, err)

	assert.Equal(t, "import { foo } from 'foo'\n\nimport { fooBar } from 'test-id';\nconsole.log(fooBar())", res.Code)
}

func TestInjectImports_InjectAtEndNestedUseIsStable(t *testing.T) {
	t.Parallel()

	cfg := fooBarConfig()
	cfg.InjectAtEnd = true

	engine := newContext(t, cfg)

	src := "import { foo } from 'foo'\nfunction f() {\n  return fooBar()\n}\n"

	once, err := engine.InjectImports(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, "import { foo } from 'foo'\n\nimport { fooBar } from 'test-id';\nfunction f() {\n  return fooBar()\n}\n", once.Code)

	twice, err := engine.InjectImports(context.Background(), once.Code, "")
	require.NoError(t, err)
	assert.Equal(t, once.Code, twice.Code)
	assert.Empty(t, twice.Injected)
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	engine := newContext(t, autoimport.Config{
		Imports: []registry.Binding{
			{Name: "import1", From: "specifier1"},
			{Name: "import2", From: "specifier2"},
			{Name: "import3", From: "specifier3"},
			{Name: "import4", From: "specifier4"},
			{Name: "foo", As: "import5", From: "specifier5"},
			{Name: "import10", From: "specifier10"},
		},
		CollectMeta: true,
	})

	ctx := context.Background()

	for _, call := range []struct{ code, id string }{
		{"console.log(import1())", "foo"},
		{"console.log(import1())", "foo"},
		{"console.log(import2())", "bar"},
		{"console.log(import1())", "gar"},
	} {
		_, err := engine.InjectImports(ctx, call.code, call.id)
		require.NoError(t, err)
	}

	data, err := json.Marshal(engine.Metadata())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"injectionUsage": {
			"import1": {
				"count": 3,
				"import": {"as": "import1", "from": "specifier1", "name": "import1"},
				"moduleIds": ["foo", "gar"]
			},
			"import2": {
				"count": 1,
				"import": {"as": "import2", "from": "specifier2", "name": "import2"},
				"moduleIds": ["bar"]
			}
		}
	}`, string(data))
}

func TestMetadata_DisabledByDefault(t *testing.T) {
	t.Parallel()

	engine := newContext(t, fooBarConfig())

	_, err := engine.InjectImports(context.Background(), "fooBar()", "a.js")
	require.NoError(t, err)

	assert.Empty(t, engine.Metadata().InjectionUsage)
}

func TestInjectImports_Cancelled(t *testing.T) {
	t.Parallel()

	cfg := fooBarConfig()
	cfg.CollectMeta = true

	engine := newContext(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.InjectImports(ctx, "fooBar()", "a.js")
	require.ErrorIs(t, err, context.Canceled)

	_, err = engine.DetectImports(ctx, "fooBar()")
	require.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, engine.Metadata().InjectionUsage)
}

func TestDetectImports(t *testing.T) {
	t.Parallel()

	cfg := fooBarConfig()
	cfg.CollectMeta = true

	engine := newContext(t, cfg)
	src := "const s = 'fooBar'\nfooBar()"

	det, err := engine.DetectImports(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, det.Pending, 1)
	assert.Equal(t, "fooBar", det.Pending[0].Binding.As)
	assert.Equal(t, len("const s = 'fooBar'\n"), det.Pending[0].First.Start)
	assert.Len(t, det.Edits, 1)
	assert.Empty(t, engine.Metadata().InjectionUsage)
}

func TestNew_InvalidCatalog(t *testing.T) {
	t.Parallel()

	_, err := autoimport.New(autoimport.Config{Imports: []registry.Binding{{Name: "x"}}})
	require.ErrorIs(t, err, registry.ErrEmptyFrom)
}

func TestNew_WarnsOnDuplicates(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	engine := newContext(t, autoimport.Config{
		Imports: []registry.Binding{
			{Name: "ref", From: "vue"},
			{Name: "ref", From: "@vue/reactivity"},
		},
	}, autoimport.WithLogger(logger))

	binding, ok := engine.Registry().Lookup("ref")
	require.True(t, ok)
	assert.Equal(t, "@vue/reactivity", binding.From)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "ref", record["name"])
	assert.Equal(t, "vue", record["replaced_from"])
}

type recorder struct {
	mu    sync.Mutex
	calls []int
}

func (r *recorder) RecordInjection(_ context.Context, _ string, injected int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, injected)
}

func TestWithMetrics(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	engine := newContext(t, fooBarConfig(), autoimport.WithMetrics(rec))

	_, err := engine.InjectImports(context.Background(), "fooBar()", "")
	require.NoError(t, err)

	_, err = engine.InjectImports(context.Background(), "other()", "")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, rec.calls)
}

func TestWithTracer(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	engine := newContext(t, fooBarConfig(), autoimport.WithTracer(tp.Tracer("test")))

	_, err := engine.InjectImports(context.Background(), "fooBar()", "main.js")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "autoimport.InjectImports", spans[0].Name)
}

func TestInjectImports_Concurrent(t *testing.T) {
	t.Parallel()

	cfg := fooBarConfig()
	cfg.CollectMeta = true

	engine := newContext(t, cfg)

	const calls = 50

	var wg sync.WaitGroup

	for range calls {
		wg.Add(1)

		go func() {
			defer wg.Done()

			res, err := engine.InjectImports(context.Background(), "fooBar()", "shared.js")
			if assert.NoError(t, err) {
				assert.Equal(t, "import { fooBar } from 'test-id';\nfooBar()", res.Code)
			}
		}()
	}

	wg.Wait()

	entry := engine.Metadata().InjectionUsage["fooBar"]
	assert.Equal(t, calls, entry.Count)
	assert.Equal(t, []string{"shared.js"}, entry.ModuleIDs)
}
