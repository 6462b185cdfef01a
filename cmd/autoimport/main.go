// Package main provides the entry point for the autoimport CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/cmd/autoimport/commands"
	"github.com/Sumatoshi-tech/autoimport/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	globals := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "autoimport",
		Short: "Add missing import declarations to JavaScript and TypeScript sources",
		Long: `autoimport scans ECMAScript-family sources for identifiers listed in its
catalog and inserts the import declarations they are missing.

Commands:
  inject    Rewrite files (or stdin) with the missing imports
  detect    List auto-importable identifiers without rewriting
  exports   Print the catalog as re-export declarations
  validate  Check a config file against the schema
  mcp       Start the MCP server on stdio
  lsp       Start the language server on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globals.ConfigPath, "config", "c", "", "config file (default .autoimport.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewInjectCommand(globals))
	rootCmd.AddCommand(commands.NewDetectCommand(globals))
	rootCmd.AddCommand(commands.NewExportsCommand(globals))
	rootCmd.AddCommand(commands.NewValidateCommand(globals))
	rootCmd.AddCommand(commands.NewMCPCommand(globals))
	rootCmd.AddCommand(commands.NewLSPCommand(globals))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autoimport %s\n", version.String())
		},
	}
}
