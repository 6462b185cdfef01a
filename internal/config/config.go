// Package config loads the autoimport configuration from file, environment
// and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/autoimport/pkg/autoimport"
	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

// Config is the top-level configuration struct for autoimport.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Imports       []registry.Binding `mapstructure:"imports"`
	MergeExisting bool               `mapstructure:"merge_existing"`
	InjectAtEnd   bool               `mapstructure:"inject_at_end"`
	CollectMeta   bool               `mapstructure:"collect_meta"`
	MaxSourceSize string             `mapstructure:"max_source_size"`
	Extensions    []string           `mapstructure:"extensions"`
	Log           LogConfig          `mapstructure:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Sentinel errors for configuration validation.
var (
	// ErrImportName indicates an imports entry without a name.
	ErrImportName = errors.New("imports[].name must not be empty")
	// ErrImportFrom indicates an imports entry without a module specifier.
	ErrImportFrom = errors.New("imports[].from must not be empty")
	// ErrImportNamespaceAlias indicates a namespace import without an alias.
	ErrImportNamespaceAlias = errors.New("imports[].as is required when name is \"*\"")
	// ErrInvalidMaxSourceSize indicates an unparsable or zero size.
	ErrInvalidMaxSourceSize = errors.New("max_source_size must be a positive byte size")
	// ErrInvalidExtension indicates an extension that does not start with a dot.
	ErrInvalidExtension = errors.New("extensions[] must start with a dot")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be one of debug, info, warn, error")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	for pos, binding := range c.Imports {
		err := validateImport(binding)
		if err != nil {
			return fmt.Errorf("imports[%d]: %w", pos, err)
		}
	}

	_, err := c.MaxSourceBytes()
	if err != nil {
		return err
	}

	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%q: %w", ext, ErrInvalidExtension)
		}
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok && c.Log.Level != "" {
		return ErrInvalidLogLevel
	}

	return nil
}

func validateImport(binding registry.Binding) error {
	switch {
	case binding.Name == "":
		return ErrImportName
	case binding.From == "":
		return ErrImportFrom
	case binding.IsNamespace() && binding.As == "":
		return ErrImportNamespaceAlias
	default:
		return nil
	}
}

// MaxSourceBytes parses MaxSourceSize. An empty value yields the default.
func (c *Config) MaxSourceBytes() (uint64, error) {
	raw := strings.TrimSpace(c.MaxSourceSize)
	if raw == "" {
		raw = DefaultMaxSourceSize
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxSourceSize, err)
	}

	if size == 0 {
		return 0, ErrInvalidMaxSourceSize
	}

	return size, nil
}

// LogLevel returns the configured slog level, info when unset.
func (c *Config) LogLevel() slog.Level {
	level, ok := logLevels[strings.ToLower(c.Log.Level)]
	if !ok {
		return slog.LevelInfo
	}

	return level
}

// ToEngine converts the configuration into the engine settings.
func (c *Config) ToEngine() autoimport.Config {
	imports := make([]registry.Binding, len(c.Imports))
	copy(imports, c.Imports)

	return autoimport.Config{
		Imports:       imports,
		MergeExisting: c.MergeExisting,
		InjectAtEnd:   c.InjectAtEnd,
		CollectMeta:   c.CollectMeta,
	}
}
