package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/autoimport/pkg/metadata"
)

// Output formats.
const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}

	return fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, format, strings.Join(allowed, ", "))
}

// newTable returns a borderless go-pretty table writing to w.
func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	return tbl
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(value)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(value)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func writeMetadata(w io.Writer, snap metadata.Snapshot, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, snap)
	case formatYAML:
		return writeYAML(w, snap)
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Name", "From", "Count", "Modules"})

	total := 0

	for _, name := range snap.Names() {
		entry := snap.InjectionUsage[name]
		total += entry.Count

		tbl.AppendRow(table.Row{name, entry.Import.From, entry.Count, strings.Join(entry.ModuleIDs, ", ")})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d injections", total)})
	tbl.Render()

	return nil
}
