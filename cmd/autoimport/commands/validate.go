package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/internal/config"
)

// ErrInvalidConfig is returned when validate finds schema or value errors.
var ErrInvalidConfig = errors.New("config is invalid")

// NewValidateCommand creates the validate subcommand.
func NewValidateCommand(g *Globals) *cobra.Command {
	var printSchema bool

	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Check a config file against the schema",
		Long: `Validate a config file against the embedded JSON schema and the value
rules the loader enforces. Without an argument the --config file is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				_, err := cmd.OutOrStdout().Write(config.Schema())
				if err != nil {
					return fmt.Errorf("write schema: %w", err)
				}

				return nil
			}

			path := g.ConfigPath
			if len(args) > 0 {
				path = args[0]
			}

			return runValidate(cmd, g, path)
		},
	}

	cmd.Flags().BoolVar(&printSchema, "print-schema", false, "print the JSON schema and exit")

	return cmd
}

func runValidate(cmd *cobra.Command, g *Globals, path string) error {
	if path == "" {
		return fmt.Errorf("%w: no config file given", ErrInvalidConfig)
	}

	out := cmd.OutOrStdout()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	violations, err := config.CheckDocument(data)
	if err != nil {
		return err
	}

	if len(violations) > 0 {
		color.New(color.FgRed).Fprintf(out, "Config validation failed (%s)\n", path)

		for _, v := range violations {
			color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", v.Field, v.Description)
		}

		return fmt.Errorf("%w: %d schema violations", ErrInvalidConfig, len(violations))
	}

	_, err = config.LoadConfig(path)
	if err != nil {
		color.New(color.FgRed).Fprintf(out, "Config validation failed (%s)\n", path)
		color.New(color.FgRed).Fprintf(out, "  - %v\n", err)

		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !g.Quiet {
		color.New(color.FgGreen).Fprintf(out, "Config is valid (%s)\n", path)
	}

	return nil
}
