package injector

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for edit application.
var (
	// ErrOverlappingEdits indicates two edits touching the same bytes.
	ErrOverlappingEdits = errors.New("overlapping edits")
	// ErrEditOutOfRange indicates an edit outside the source bounds.
	ErrEditOutOfRange = errors.New("edit out of range")
)

// Edit replaces the bytes [Start, End) of the original source with Text.
// Start == End is an insertion.
type Edit struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// editBuilder accumulates edits computed against one unmodified source.
type editBuilder struct {
	edits []Edit
}

func (b *editBuilder) insert(offset int, text string) {
	b.replace(offset, offset, text)
}

func (b *editBuilder) replace(start, end int, text string) {
	b.edits = append(b.edits, Edit{Start: start, End: end, Text: text})
}

// ApplyEdits applies edits to src in a single pass. Edits are ordered by start
// offset; insertions at the same offset keep their given order.
func ApplyEdits(src string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var out strings.Builder

	out.Grow(len(src) + totalText(sorted))

	cursor := 0

	for _, edit := range sorted {
		if edit.Start < 0 || edit.End < edit.Start || edit.End > len(src) {
			return "", fmt.Errorf("apply [%d,%d) to %d bytes: %w", edit.Start, edit.End, len(src), ErrEditOutOfRange)
		}

		if edit.Start < cursor {
			return "", fmt.Errorf("apply [%d,%d) after offset %d: %w", edit.Start, edit.End, cursor, ErrOverlappingEdits)
		}

		out.WriteString(src[cursor:edit.Start])
		out.WriteString(edit.Text)

		cursor = edit.End
	}

	out.WriteString(src[cursor:])

	return out.String(), nil
}

func totalText(edits []Edit) int {
	n := 0
	for _, edit := range edits {
		n += len(edit.Text)
	}

	return n
}
