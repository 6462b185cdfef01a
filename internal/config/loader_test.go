package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/internal/config"
	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".autoimport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.Imports)
	assert.Equal(t, config.DefaultMergeExisting, cfg.MergeExisting)
	assert.Equal(t, config.DefaultInjectAtEnd, cfg.InjectAtEnd)
	assert.Equal(t, config.DefaultCollectMeta, cfg.CollectMeta)
	assert.Equal(t, config.DefaultMaxSourceSize, cfg.MaxSourceSize)
	assert.Equal(t, config.DefaultExtensions(), cfg.Extensions)
	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
imports:
  - name: ref
    from: vue
  - name: default
    as: React
    from: react
  - name: "*"
    as: path
    from: node:path
merge_existing: true
inject_at_end: true
collect_meta: true
max_source_size: 2MiB
extensions: [".js", ".vue"]
log:
  level: warn
  json: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []registry.Binding{
		{Name: "ref", From: "vue"},
		{Name: "default", As: "React", From: "react"},
		{Name: "*", As: "path", From: "node:path"},
	}, cfg.Imports)
	assert.True(t, cfg.MergeExisting)
	assert.True(t, cfg.InjectAtEnd)
	assert.True(t, cfg.CollectMeta)
	assert.Equal(t, "2MiB", cfg.MaxSourceSize)
	assert.Equal(t, []string{".js", ".vue"}, cfg.Extensions)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadConfig_SchemaViolation_ReturnsError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
imports:
  - name: ref
    module: vue
`)

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrSchemaViolation)
}

func TestLoadConfig_InvalidValue_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "max_source_size: huge\n"))
	require.ErrorIs(t, err, config.ErrInvalidMaxSourceSize)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "imports: [\n"))
	require.Error(t, err)
}

func TestLoadConfig_ExplicitPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("AUTOIMPORT_MERGE_EXISTING", "true")
	t.Setenv("AUTOIMPORT_LOG_LEVEL", "error")

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.True(t, cfg.MergeExisting)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.ValidateDocument([]byte("imports:\n  - {name: a, from: b}\n")))
	require.NoError(t, config.ValidateDocument(nil))
	require.ErrorIs(t, config.ValidateDocument([]byte("merge_existing: maybe\n")), config.ErrSchemaViolation)
	require.ErrorIs(t, config.ValidateDocument([]byte("log: {level: loud}\n")), config.ErrSchemaViolation)
}

func TestSchema_IsACopy(t *testing.T) {
	t.Parallel()

	first := config.Schema()
	first[0] = 'x'

	assert.Equal(t, byte('{'), config.Schema()[0])
}

func TestCheckDocument(t *testing.T) {
	t.Parallel()

	violations, err := config.CheckDocument([]byte("merge_existing: maybe\n"))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "merge_existing", violations[0].Field)
	assert.NotEmpty(t, violations[0].Description)

	violations, err = config.CheckDocument([]byte("collect_meta: true\n"))
	require.NoError(t, err)
	assert.Empty(t, violations)

	_, err = config.CheckDocument([]byte("imports: [\n"))
	require.Error(t, err)
}
