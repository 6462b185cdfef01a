package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/internal/lsp"
	"github.com/Sumatoshi-tech/autoimport/internal/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand(g *Globals) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server on stdio",
		Long: `Start a Language Server Protocol server on stdio transport.

Open documents get an information diagnostic for every identifier that can be
auto-imported, and the "Add missing imports" quick fix inserts them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := setup(g, setupOptions{
				mode:       observability.ModeLSP,
				logOutput:  cobraCmd.ErrOrStderr(),
				prometheus: metricsAddr != "",
				debug:      debug,
			})
			if err != nil {
				return err
			}
			defer rt.close()

			red, err := observability.NewREDMetrics(rt.providers.Meter)
			if err != nil {
				return err
			}

			stop, err := startDiagnostics(rt, metricsAddr)
			if err != nil {
				return err
			}
			defer stop()

			srv := lsp.NewServer(lsp.ServerDeps{
				Engine:  rt.engine,
				Logger:  rt.providers.Logger,
				Metrics: red,
				Tracer:  rt.providers.Tracer,
				Debug:   debug,
			})

			return srv.Run()
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable protocol and debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /healthz, /readyz and /metrics on this address")

	return cmd
}

// errEmptyCatalog fails the readiness check of a server without bindings.
var errEmptyCatalog = errors.New("catalog has no bindings")

// startDiagnostics serves health and metrics endpoints when addr is set and
// returns the function stopping them.
func startDiagnostics(rt *runtime, addr string) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}

	ready := observability.ReadyCheck{
		Name: "catalog",
		Check: func(context.Context) error {
			if rt.engine.Registry().Len() == 0 {
				return errEmptyCatalog
			}

			return nil
		},
	}

	ds, err := observability.NewDiagnosticsServer(addr, rt.providers.MetricsHandler, rt.providers.Tracer, rt.providers.Logger, ready)
	if err != nil {
		return nil, err
	}

	rt.providers.Logger.Info("diagnostics server listening", "addr", ds.Addr())

	return func() {
		closeErr := ds.Close(context.Background())
		if closeErr != nil {
			rt.providers.Logger.Warn("diagnostics server shutdown failed", "error", closeErr)
		}
	}, nil
}
