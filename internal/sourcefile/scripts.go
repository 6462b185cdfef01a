package sourcefile

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"
)

// Single-file component formats keep their script in <script> elements next
// to markup.
var (
	componentExts      = []string{".vue", ".svelte"}
	componentLanguages = []string{"Vue", "Svelte"}
)

const (
	scriptOpen  = "<script"
	scriptClose = "</script"
	htmlComment = "<!--"
	htmlEnd     = "-->"
)

// Block is the byte range [Start, End) of a file that holds script text.
type Block struct {
	Start int
	End   int
}

// IsComponent reports whether name is a Vue or Svelte single-file component.
func IsComponent(name string) bool {
	if slices.Contains(componentExts, strings.ToLower(filepath.Ext(name))) {
		return true
	}

	return slices.Contains(componentLanguages, enry.GetLanguage(path.Base(filepath.ToSlash(name)), nil))
}

// Scripts returns the ranges of data the engine may rewrite. A component
// yields the content of each inline <script> element, in order, and nothing
// when it has none. Any other file is a single block covering all of data.
func Scripts(name string, data []byte) []Block {
	if !IsComponent(name) {
		return []Block{{Start: 0, End: len(data)}}
	}

	return scriptBlocks(string(data))
}

func scriptBlocks(src string) []Block {
	lower := strings.ToLower(src)

	var blocks []Block

	for pos := 0; pos < len(lower); {
		open := strings.IndexByte(lower[pos:], '<')
		if open < 0 {
			break
		}

		open += pos

		if strings.HasPrefix(lower[open:], htmlComment) {
			end := strings.Index(lower[open+len(htmlComment):], htmlEnd)
			if end < 0 {
				break
			}

			pos = open + len(htmlComment) + end + len(htmlEnd)

			continue
		}

		if !isScriptTag(lower, open) {
			pos = open + 1

			continue
		}

		tagEnd, selfClosing, ok := openTagEnd(lower, open+len(scriptOpen))
		if !ok {
			break
		}

		if selfClosing {
			pos = tagEnd

			continue
		}

		closeAt := strings.Index(lower[tagEnd:], scriptClose)
		if closeAt < 0 {
			break
		}

		closeAt += tagEnd

		if !hasAttr(lower[open:tagEnd], "src") {
			blocks = append(blocks, Block{Start: contentStart(src, tagEnd, closeAt), End: closeAt})
		}

		pos = closeAt + len(scriptClose)
	}

	return blocks
}

// isScriptTag reports whether a <script start tag begins at open.
func isScriptTag(lower string, open int) bool {
	if !strings.HasPrefix(lower[open:], scriptOpen) {
		return false
	}

	next := open + len(scriptOpen)
	if next >= len(lower) {
		return false
	}

	switch lower[next] {
	case '>', '/', ' ', '\t', '\n', '\r':
		return true
	}

	return false
}

// openTagEnd returns the offset just past the '>' closing a start tag whose
// attributes begin at pos. Quoted attribute values may contain '>'.
func openTagEnd(lower string, pos int) (end int, selfClosing, ok bool) {
	var quote byte

	for i := pos; i < len(lower); i++ {
		c := lower[i]

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, i > pos && lower[i-1] == '/', true
		}
	}

	return 0, false, false
}

// hasAttr reports whether the start tag carries the named attribute.
func hasAttr(tag, name string) bool {
	for _, field := range strings.FieldsFunc(tag, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '>' || r == '/'
	}) {
		key, _, _ := strings.Cut(field, "=")
		if key == name {
			return true
		}
	}

	return false
}

// contentStart skips the line break that usually follows the start tag, so
// declarations inserted at the top of a block begin on their own line.
func contentStart(src string, start, end int) int {
	switch {
	case strings.HasPrefix(src[start:end], "\r\n"):
		return start + 2
	case strings.HasPrefix(src[start:end], "\n"):
		return start + 1
	default:
		return start
	}
}
