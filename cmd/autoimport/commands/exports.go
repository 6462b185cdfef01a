package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/internal/observability"
	"github.com/Sumatoshi-tech/autoimport/pkg/injector"
)

const exportsFilePerm = 0o644

// NewExportsCommand creates the exports subcommand.
func NewExportsCommand(g *Globals) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "Print the catalog as re-export declarations",
		Long: `Render every catalog binding as an export declaration, one line per
module, suitable for a barrel file or a type declaration stub.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(g, setupOptions{mode: observability.ModeCLI, logOutput: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer rt.close()

			rendered := injector.RenderExports(rt.engine.Registry().Bindings())

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), rendered)

				return nil
			}

			err = os.WriteFile(output, []byte(rendered), exportsFilePerm)
			if err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
