// Package commands implements the autoimport CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Sumatoshi-tech/autoimport/internal/config"
	"github.com/Sumatoshi-tech/autoimport/internal/observability"
	"github.com/Sumatoshi-tech/autoimport/pkg/autoimport"
	"github.com/Sumatoshi-tech/autoimport/pkg/version"
)

// Globals holds the persistent root flags shared by every subcommand.
type Globals struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// ErrConflictingVerbosity is returned when --verbose and --quiet are combined.
var ErrConflictingVerbosity = errors.New("--verbose and --quiet are mutually exclusive")

// runtime is the per-invocation state built from config and flags.
type runtime struct {
	cfg       *config.Config
	maxBytes  uint64
	providers observability.Providers
	engine    *autoimport.Context
}

// setupOptions adjusts runtime construction for one subcommand.
type setupOptions struct {
	mode        observability.AppMode
	logOutput   io.Writer
	collectMeta bool
	prometheus  bool
	debug       bool
}

func (g *Globals) logLevel(cfg *config.Config) slog.Level {
	switch {
	case g.Verbose:
		return slog.LevelDebug
	case g.Quiet:
		return slog.LevelError
	default:
		return cfg.LogLevel()
	}
}

func setup(g *Globals, opts setupOptions) (*runtime, error) {
	if g.Verbose && g.Quiet {
		return nil, ErrConflictingVerbosity
	}

	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.collectMeta {
		cfg.CollectMeta = true
	}

	maxBytes, err := cfg.MaxSourceBytes()
	if err != nil {
		return nil, err
	}

	obsCfg := observability.ConfigFromEnv(observability.DefaultConfig())
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = opts.mode
	obsCfg.LogLevel = g.logLevel(cfg)
	obsCfg.LogJSON = cfg.Log.JSON || opts.mode != observability.ModeCLI
	obsCfg.LogOutput = opts.logOutput
	obsCfg.Prometheus = opts.prometheus

	if opts.debug {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	injection, err := observability.NewInjectionMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	engine, err := autoimport.New(cfg.ToEngine(),
		autoimport.WithLogger(providers.Logger),
		autoimport.WithTracer(providers.Tracer),
		autoimport.WithMetrics(injection),
	)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &runtime{cfg: cfg, maxBytes: maxBytes, providers: providers, engine: engine}, nil
}

func (rt *runtime) close() {
	err := rt.providers.Shutdown(context.Background())
	if err != nil {
		rt.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
