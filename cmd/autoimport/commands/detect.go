package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/internal/observability"
	"github.com/Sumatoshi-tech/autoimport/internal/sourcefile"
)

// Finding is one auto-importable identifier reported by detect.
type Finding struct {
	File   string `json:"file"   yaml:"file"`
	Name   string `json:"name"   yaml:"name"`
	From   string `json:"from"   yaml:"from"`
	Line   int    `json:"line"   yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// NewDetectCommand creates the detect subcommand.
func NewDetectCommand(g *Globals) *cobra.Command {
	var (
		format    string
		stdinName string
	)

	cmd := &cobra.Command{
		Use:   "detect [paths...]",
		Short: "List identifiers that would be auto-imported",
		Long: `Report each catalog identifier a source uses without importing it,
positioned at its first use. Sources are never modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := checkFormat(format, formatText, formatTable, formatJSON, formatYAML)
			if err != nil {
				return err
			}

			findings, err := runDetect(cmd, g, stdinName, args)
			if err != nil {
				return err
			}

			return writeFindings(cmd.OutOrStdout(), findings, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, table, json, yaml")
	cmd.Flags().StringVar(&stdinName, "stdin-name", "<stdin>", "file name reported for stdin input")

	return cmd
}

func runDetect(cmd *cobra.Command, g *Globals, stdinName string, args []string) ([]Finding, error) {
	rt, err := setup(g, setupOptions{mode: observability.ModeCLI, logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}
	defer rt.close()

	ctx := cmd.Context()
	findings := []Finding{}

	if len(args) == 0 || (len(args) == 1 && args[0] == stdinArg) {
		data, readErr := sourcefile.Read(cmd.InOrStdin(), stdinName, rt.maxBytes)
		if readErr != nil {
			return nil, readErr
		}

		return detectSource(ctx, rt, findings, stdinName, string(data))
	}

	files, err := sourcefile.Collect(args, rt.cfg.Extensions)
	if err != nil {
		return nil, err
	}

	for _, name := range files {
		data, loadErr := sourcefile.Load(name, rt.maxBytes)
		if loadErr != nil {
			return nil, loadErr
		}

		if !sourcefile.Supported(name, data, rt.cfg.Extensions) {
			continue
		}

		findings, err = detectSource(ctx, rt, findings, name, string(data))
		if err != nil {
			return nil, err
		}
	}

	return findings, nil
}

func detectSource(ctx context.Context, rt *runtime, findings []Finding, name, code string) ([]Finding, error) {
	for _, b := range sourcefile.Scripts(name, []byte(code)) {
		det, err := rt.engine.DetectImports(ctx, code[b.Start:b.End])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		for _, p := range det.Pending {
			line, col := lineColumn(code, b.Start+p.First.Start)

			findings = append(findings, Finding{
				File:   name,
				Name:   p.Binding.FinalName(),
				From:   p.Binding.From,
				Line:   line,
				Column: col,
			})
		}
	}

	return findings, nil
}

// lineColumn returns the 1-based line and byte column of offset.
func lineColumn(code string, offset int) (int, int) {
	before := code[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')

	return line, col
}

func writeFindings(w io.Writer, findings []Finding, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, findings)
	case formatYAML:
		return writeYAML(w, findings)
	case formatTable:
		tbl := newTable(w)
		tbl.AppendHeader([]any{"File", "Line", "Name", "From"})

		for _, f := range findings {
			tbl.AppendRow([]any{f.File, fmt.Sprintf("%d:%d", f.Line, f.Column), f.Name, f.From})
		}

		tbl.Render()

		return nil
	}

	for _, f := range findings {
		fmt.Fprintf(w, "%s:%d:%d: %s from '%s'\n", f.File, f.Line, f.Column, f.Name, f.From)
	}

	return nil
}
