package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContextLines is the number of unchanged lines shown around a change.
const diffContextLines = 2

// renderDiff prints a line-oriented diff of before and after.
func renderDiff(w io.Writer, name, before, after string) {
	dmp := diffmatchpatch.New()

	left, right, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(left, right, false), lines)

	header := color.New(color.Bold)
	header.Fprintf(w, "--- %s\n", name)
	header.Fprintf(w, "+++ %s\n", name)

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	for idx, d := range diffs {
		chunk := splitLines(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range chunk {
				added.Fprintf(w, "+%s\n", line)
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range chunk {
				removed.Fprintf(w, "-%s\n", line)
			}
		case diffmatchpatch.DiffEqual:
			writeContext(w, chunk, idx > 0, idx < len(diffs)-1)
		}
	}
}

// writeContext prints the unchanged lines adjacent to the surrounding
// changes and elides the rest.
func writeContext(w io.Writer, chunk []string, afterChange, beforeChange bool) {
	var head, tail []string

	switch {
	case afterChange && beforeChange:
		if len(chunk) <= 2*diffContextLines {
			head = chunk
		} else {
			head, tail = chunk[:diffContextLines], chunk[len(chunk)-diffContextLines:]
		}
	case afterChange:
		head = chunk[:min(len(chunk), diffContextLines)]
	case beforeChange:
		tail = chunk[max(0, len(chunk)-diffContextLines):]
	}

	for _, line := range head {
		fmt.Fprintf(w, " %s\n", line)
	}

	if tail != nil && (len(head) > 0 || len(chunk) > len(tail)) {
		fmt.Fprintln(w, "@@")
	}

	for _, line := range tail {
		fmt.Fprintf(w, " %s\n", line)
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
