package scanner

// utf8Self is the first byte value that belongs to a multi-byte UTF-8 sequence.
// Such bytes are treated as identifier characters so non-ASCII names stay whole.
const utf8Self = 0x80

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$' || c >= utf8Self
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isFlagChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// identEnd returns the offset just past the identifier starting at pos.
func identEnd(src string, pos int) int {
	for pos < len(src) && isIdentChar(src[pos]) {
		pos++
	}

	return pos
}

// exprKeywords are the keywords after which a `/` starts a regular expression.
var exprKeywords = map[string]bool{
	"await":      true,
	"case":       true,
	"default":    true,
	"delete":     true,
	"do":         true,
	"else":       true,
	"in":         true,
	"instanceof": true,
	"new":        true,
	"of":         true,
	"return":     true,
	"throw":      true,
	"typeof":     true,
	"void":       true,
	"yield":      true,
}
