package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/internal/mcp"
	"github.com/Sumatoshi-tech/autoimport/internal/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(g *Globals) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the auto-import engine as tools that AI agents
can discover and invoke:
  - autoimport_inject: Add missing imports to inline code
  - autoimport_detect: List identifiers that would be auto-imported
  - autoimport_metadata: Report injection usage collected so far`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := setup(g, setupOptions{
				mode:       observability.ModeMCP,
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

			srv := mcp.NewServer(mcp.ServerDeps{
				Engine:       rt.engine,
				MaxCodeBytes: rt.maxBytes,
				Logger:       rt.providers.Logger,
				Metrics:      red,
				Tracer:       rt.providers.Tracer,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /healthz, /readyz and /metrics on this address")

	return cmd
}
