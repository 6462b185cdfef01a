package lsp

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LineIndex converts between byte offsets and LSP positions, whose
// characters count UTF-16 code units.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}

	for i := range len(text) {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &LineIndex{text: text, starts: starts}
}

// Position returns the LSP position of the byte offset. Offsets are clamped
// to the text.
func (li *LineIndex) Position(offset int) protocol.Position {
	offset = max(0, min(offset, len(li.text)))

	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1

	var units int

	for _, r := range li.text[li.starts[line]:offset] {
		units += utf16Len(r)
	}

	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(units)}
}

// Offset returns the byte offset of pos. Positions past the end of a line
// resolve to the line end; lines past the end resolve to the text end.
func (li *LineIndex) Offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(li.starts) {
		return len(li.text)
	}

	end := len(li.text)
	if line+1 < len(li.starts) {
		end = li.starts[line+1] - 1
	}

	offset := li.starts[line]
	want := int(pos.Character)

	for units := 0; offset < end && units < want; {
		r, size := utf8.DecodeRuneInString(li.text[offset:end])
		units += utf16Len(r)
		offset += size
	}

	return offset
}

// Range returns the LSP range covering the bytes [start, end).
func (li *LineIndex) Range(start, end int) protocol.Range {
	return protocol.Range{Start: li.Position(start), End: li.Position(end)}
}

func utf16Len(r rune) int {
	n := utf16.RuneLen(r)
	if n < 0 {
		return 1
	}

	return n
}
