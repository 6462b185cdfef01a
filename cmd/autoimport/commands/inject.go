package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autoimport/internal/observability"
	"github.com/Sumatoshi-tech/autoimport/internal/sourcefile"
	"github.com/Sumatoshi-tech/autoimport/pkg/autoimport"
)

const stdinArg = "-"

// ErrWouldChange is returned by inject --check when a source is missing imports.
var ErrWouldChange = errors.New("some sources are missing imports")

type injectOptions struct {
	write      bool
	diff       bool
	check      bool
	meta       bool
	metaFormat string
	stdinName  string
	noColor    bool
}

// NewInjectCommand creates the inject subcommand.
func NewInjectCommand(g *Globals) *cobra.Command {
	var opts injectOptions

	cmd := &cobra.Command{
		Use:   "inject [paths...]",
		Short: "Add missing imports to files or stdin",
		Long: `Add the missing import declarations to each source.

Directories are walked recursively; vendored trees such as node_modules are
skipped. Without paths, or with "-", the source is read from stdin.

By default the rewritten source is printed to stdout. --write updates files in
place, --diff prints a line diff, and --check only reports which sources would
change and fails if any would.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			return runInject(cmd, g, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write result to the source files")
	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "print a diff instead of the rewritten source")
	cmd.Flags().BoolVar(&opts.check, "check", false, "exit with an error if any source is missing imports")
	cmd.Flags().BoolVar(&opts.meta, "meta", false, "print injection usage after processing")
	cmd.Flags().StringVar(&opts.metaFormat, "format", formatTable, "usage output format: table, json, yaml")
	cmd.Flags().StringVar(&opts.stdinName, "stdin-name", "<stdin>", "module id used for stdin input")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	return cmd
}

func runInject(cmd *cobra.Command, g *Globals, opts injectOptions, args []string) error {
	err := checkFormat(opts.metaFormat, formatTable, formatJSON, formatYAML)
	if err != nil {
		return err
	}

	rt, err := setup(g, setupOptions{
		mode:        observability.ModeCLI,
		logOutput:   cmd.ErrOrStderr(),
		collectMeta: opts.meta,
	})
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	changed := 0

	if len(args) == 0 || (len(args) == 1 && args[0] == stdinArg) {
		data, readErr := sourcefile.Read(cmd.InOrStdin(), opts.stdinName, rt.maxBytes)
		if readErr != nil {
			return readErr
		}

		res, injectErr := injectSource(ctx, rt, opts.stdinName, string(data))
		if injectErr != nil {
			return injectErr
		}

		changed += emit(out, opts, opts.stdinName, string(data), res)
	} else {
		files, collectErr := sourcefile.Collect(args, rt.cfg.Extensions)
		if collectErr != nil {
			return collectErr
		}

		for _, name := range files {
			n, fileErr := injectFile(ctx, rt, out, opts, name)
			if fileErr != nil {
				return fileErr
			}

			changed += n
		}
	}

	if opts.meta {
		metaErr := writeMetadata(out, rt.engine.Metadata(), opts.metaFormat)
		if metaErr != nil {
			return metaErr
		}
	}

	if opts.check && changed > 0 {
		return fmt.Errorf("%w: %d", ErrWouldChange, changed)
	}

	return nil
}

func injectFile(ctx context.Context, rt *runtime, out io.Writer, opts injectOptions, name string) (int, error) {
	data, err := sourcefile.Load(name, rt.maxBytes)
	if err != nil {
		return 0, err
	}

	if !sourcefile.Supported(name, data, rt.cfg.Extensions) {
		rt.providers.Logger.Warn("skipping unsupported file", "path", name)

		return 0, nil
	}

	res, err := injectSource(ctx, rt, name, string(data))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	n := emit(out, opts, name, string(data), res)

	if opts.write && res.Changed() {
		info, statErr := os.Stat(name)
		if statErr != nil {
			return 0, fmt.Errorf("stat %s: %w", name, statErr)
		}

		writeErr := os.WriteFile(name, []byte(res.Code), info.Mode().Perm())
		if writeErr != nil {
			return 0, fmt.Errorf("write %s: %w", name, writeErr)
		}

		rt.providers.Logger.Info("updated", "path", name, "injected", len(res.Injected))
	}

	return n, nil
}

// injectSource runs the engine on each script block of code and splices the
// rewritten blocks back. Component markup is never touched.
func injectSource(ctx context.Context, rt *runtime, name, code string) (*autoimport.Result, error) {
	blocks := sourcefile.Scripts(name, []byte(code))
	if len(blocks) == 1 && blocks[0].Start == 0 && blocks[0].End == len(code) {
		return rt.engine.InjectImports(ctx, code, name)
	}

	var (
		merged autoimport.Result
		out    strings.Builder
		cursor int
	)

	for _, b := range blocks {
		res, err := rt.engine.InjectImports(ctx, code[b.Start:b.End], name)
		if err != nil {
			return nil, err
		}

		out.WriteString(code[cursor:b.Start])
		out.WriteString(res.Code)
		cursor = b.End

		merged.Injected = append(merged.Injected, res.Injected...)

		for _, e := range res.Edits {
			e.Start += b.Start
			e.End += b.Start
			merged.Edits = append(merged.Edits, e)
		}
	}

	out.WriteString(code[cursor:])
	merged.Code = out.String()

	return &merged, nil
}

// emit prints the outcome of one source according to opts and reports
// whether it changed.
func emit(out io.Writer, opts injectOptions, name, before string, res *autoimport.Result) int {
	changed := 0
	if res.Changed() {
		changed = 1
	}

	switch {
	case opts.check:
		if res.Changed() {
			fmt.Fprintf(out, "%s\n", name)
		}
	case opts.diff:
		if res.Changed() {
			renderDiff(out, name, before, res.Code)
		}
	case !opts.write:
		fmt.Fprint(out, res.Code)
	}

	return changed
}
