// Package scanner implements a single-pass lexical scan of ECMAScript-family
// source text. It reports identifiers used in real code, as opposed to those
// inside strings, comments, template text or regular expressions, together
// with the import and re-export declarations already present.
//
// The scanner is not a parser. It tracks just enough state (an explicit mode
// machine, brace depth and the kind of the last significant token) to keep
// the common false positives out.
package scanner

import "strings"

// Mode is the lexical state of the scanner.
type Mode uint8

// Scan modes.
const (
	ModeCode Mode = iota
	ModeLineComment
	ModeBlockComment
	ModeSingleQuote
	ModeDoubleQuote
	ModeTemplate
	ModeRegex

	modeCount
)

var modeNames = [modeCount]string{
	ModeCode:         "code",
	ModeLineComment:  "line-comment",
	ModeBlockComment: "block-comment",
	ModeSingleQuote:  "single-quote",
	ModeDoubleQuote:  "double-quote",
	ModeTemplate:     "template",
	ModeRegex:        "regex",
}

// String returns the mode name.
func (m Mode) String() string {
	if m >= modeCount {
		return "unknown"
	}

	return modeNames[m]
}

// tokenKind classifies the last significant token for regex detection.
type tokenKind uint8

const (
	// tokExprStart: start of input, punctuation or an expression keyword.
	// A `/` here starts a regular expression.
	tokExprStart tokenKind = iota
	// tokOperand: identifier, number, literal, `)` or `]`. A `/` here divides.
	tokOperand
)

type scanner struct {
	src  string
	pos  int
	mode Mode

	// frames holds one brace depth per open template substitution.
	frames []int
	// depth is the brace depth outside template substitutions.
	depth int

	last      tokenKind
	lastPunct byte
	afterDot  bool
	inClass   bool

	leadingOpen bool
	res         *Result
}

// steps is the transition table: one handler per mode, each consuming input
// and possibly switching modes.
var steps = [modeCount]func(*scanner){
	ModeCode:         (*scanner).stepCode,
	ModeLineComment:  (*scanner).stepLineComment,
	ModeBlockComment: (*scanner).stepBlockComment,
	ModeSingleQuote:  func(s *scanner) { s.stepQuoted('\'') },
	ModeDoubleQuote:  func(s *scanner) { s.stepQuoted('"') },
	ModeTemplate:     (*scanner).stepTemplate,
	ModeRegex:        (*scanner).stepRegex,
}

// Scan tokenizes src in one forward pass. Unterminated strings, comments and
// regular expressions are closed implicitly at end of input.
func Scan(src string) *Result {
	s := &scanner{
		src:         src,
		last:        tokExprStart,
		leadingOpen: true,
		res:         &Result{Source: src, LeadingEnd: -1},
	}

	s.skipShebang()

	for s.pos < len(s.src) {
		steps[s.mode](s)
	}

	s.markPrologue()

	return s.res
}

func (s *scanner) skipShebang() {
	if !strings.HasPrefix(s.src, "#!") {
		return
	}

	nl := strings.IndexByte(s.src, '\n')
	if nl < 0 {
		s.pos = len(s.src)
	} else {
		s.pos = nl + 1
	}

	s.res.Start = s.pos
}

func (s *scanner) peek(ahead int) byte {
	if s.pos+ahead >= len(s.src) {
		return 0
	}

	return s.src[s.pos+ahead]
}

func (s *scanner) topLevel() bool {
	return s.depth == 0 && len(s.frames) == 0
}

// endPrologue closes the leading import block on the first significant token
// that is not an import declaration.
func (s *scanner) endPrologue() {
	s.leadingOpen = false
}

func (s *scanner) operand() {
	s.last = tokOperand
	s.lastPunct = 0
	s.afterDot = false
}

func (s *scanner) punct(c byte) {
	s.last = tokExprStart
	s.lastPunct = c
	s.afterDot = false
}

func (s *scanner) stepCode() {
	c := s.src[s.pos]

	switch {
	case isSpace(c):
		s.pos++
	case c == '/' && s.peek(1) == '/':
		s.mode = ModeLineComment
		s.pos += 2
	case c == '/' && s.peek(1) == '*':
		s.mode = ModeBlockComment
		s.pos += 2
	case c == '/' && s.last == tokExprStart:
		s.endPrologue()
		s.mode = ModeRegex
		s.inClass = false
		s.pos++
	case c == '\'':
		s.enterLiteral(ModeSingleQuote)
	case c == '"':
		s.enterLiteral(ModeDoubleQuote)
	case c == '`':
		s.enterLiteral(ModeTemplate)
	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		s.scanNumber()
	case isIdentStart(c):
		s.scanWord()
	case c == '#' && isIdentStart(s.peek(1)):
		s.endPrologue()
		s.pos = identEnd(s.src, s.pos+1)
		s.operand()
	default:
		s.scanPunct(c)
	}
}

func (s *scanner) enterLiteral(mode Mode) {
	s.endPrologue()
	s.mode = mode
	s.pos++
}

// leaveLiteral returns to code after a string, template or regex literal.
func (s *scanner) leaveLiteral() {
	s.mode = ModeCode
	s.operand()
}

func (s *scanner) scanNumber() {
	s.endPrologue()

	for s.pos < len(s.src) && (isIdentChar(s.src[s.pos]) || s.src[s.pos] == '.') {
		s.pos++
	}

	s.operand()
}

func (s *scanner) scanPunct(c byte) {
	s.endPrologue()

	switch c {
	case '{':
		if n := len(s.frames); n > 0 {
			s.frames[n-1]++
		} else {
			s.depth++
		}

		s.pos++
		s.punct(c)
	case '}':
		s.pos++

		if n := len(s.frames); n > 0 {
			if s.frames[n-1] == 0 {
				s.frames = s.frames[:n-1]
				s.mode = ModeTemplate

				return
			}

			s.frames[n-1]--
		} else if s.depth > 0 {
			s.depth--
		}

		s.punct(c)
	case ')', ']':
		s.pos++
		s.operand()
	case '.':
		if strings.HasPrefix(s.src[s.pos:], "...") {
			s.pos += 3
			s.punct(c)

			return
		}

		s.pos++
		s.punct(c)
		s.afterDot = true
	case '?':
		if s.peek(1) == '.' && !isDigit(s.peek(2)) {
			s.pos += 2
			s.punct('.')
			s.afterDot = true

			return
		}

		s.pos++
		s.punct(c)
	case '+', '-':
		if s.peek(1) == c {
			s.pos += 2
			s.operand()

			return
		}

		s.pos++
		s.punct(c)
	default:
		s.pos++
		s.punct(c)
	}
}

func (s *scanner) scanWord() {
	start := s.pos
	end := identEnd(s.src, start)
	word := s.src[start:end]

	if !s.afterDot && s.topLevel() {
		switch word {
		case "import":
			if s.tryImport(start, end) {
				return
			}
		case "export":
			if s.tryExport(start, end) {
				return
			}
		}
	}

	s.endPrologue()
	s.pos = end

	member := s.afterDot
	prevPunct := s.lastPunct

	if exprKeywords[word] {
		s.punct(0)

		return
	}

	s.operand()

	if member {
		return
	}

	if (prevPunct == '{' || prevPunct == ',') && s.nextByte(end) == ':' {
		return
	}

	s.res.Occurrences = append(s.res.Occurrences, Occurrence{Name: word, Start: start, End: end})
}

// nextByte returns the first significant byte at or after pos.
func (s *scanner) nextByte(pos int) byte {
	pos = skipTrivia(s.src, pos)
	if pos >= len(s.src) {
		return 0
	}

	return s.src[pos]
}

func (s *scanner) tryImport(start, end int) bool {
	if next := s.nextByte(end); next == '(' || next == '.' {
		return false
	}

	decl, next, ok := parseImport(s.src, start, end)
	if !ok {
		return false
	}

	s.res.Imports = append(s.res.Imports, decl)

	if s.leadingOpen {
		s.res.LeadingEnd = decl.End
	}

	s.pos = next
	s.punct(';')

	return true
}

func (s *scanner) tryExport(start, end int) bool {
	stmt, ok := parseExport(s.src, start, end)
	if !ok {
		return false
	}

	s.endPrologue()

	if stmt.reExport != nil {
		s.res.ReExports = append(s.res.ReExports, *stmt.reExport)
	}

	for _, spec := range stmt.locals {
		s.res.Occurrences = append(s.res.Occurrences, Occurrence{
			Name:  spec.Imported,
			Start: spec.Start,
			End:   spec.Start + len(spec.Imported),
		})
	}

	s.pos = stmt.end
	s.punct(';')

	return true
}

func (s *scanner) stepLineComment() {
	nl := strings.IndexByte(s.src[s.pos:], '\n')
	if nl < 0 {
		s.pos = len(s.src)
	} else {
		s.pos += nl
	}

	s.mode = ModeCode
}

func (s *scanner) stepBlockComment() {
	closeAt := strings.Index(s.src[s.pos:], "*/")
	if closeAt < 0 {
		s.pos = len(s.src)
	} else {
		s.pos += closeAt + len("*/")
	}

	s.mode = ModeCode
}

func (s *scanner) stepQuoted(quote byte) {
	switch s.src[s.pos] {
	case '\\':
		s.pos += 2
	case quote:
		s.pos++
		s.leaveLiteral()
	case '\n':
		s.leaveLiteral()
	default:
		s.pos++
	}
}

func (s *scanner) stepTemplate() {
	switch c := s.src[s.pos]; {
	case c == '\\':
		s.pos += 2
	case c == '`':
		s.pos++
		s.leaveLiteral()
	case c == '$' && s.peek(1) == '{':
		s.pos += 2
		s.frames = append(s.frames, 0)
		s.mode = ModeCode
		s.punct(0)
	default:
		s.pos++
	}
}

func (s *scanner) stepRegex() {
	switch c := s.src[s.pos]; {
	case c == '\\':
		s.pos += 2
	case c == '\n':
		s.inClass = false
		s.leaveLiteral()
	case c == '[':
		s.inClass = true
		s.pos++
	case c == ']':
		s.inClass = false
		s.pos++
	case c == '/' && !s.inClass:
		s.pos++

		for s.pos < len(s.src) && isFlagChar(s.src[s.pos]) {
			s.pos++
		}

		s.leaveLiteral()
	default:
		s.pos++
	}
}

// markPrologue flags occurrences that share the last line of the leading
// import block.
func (s *scanner) markPrologue() {
	if !s.res.HasLeadingBlock() {
		return
	}

	limit := len(s.src)
	if nl := strings.IndexByte(s.src[s.res.LeadingEnd:], '\n'); nl >= 0 {
		limit = s.res.LeadingEnd + nl
	}

	for i := range s.res.Occurrences {
		if s.res.Occurrences[i].Start < limit {
			s.res.Occurrences[i].InPrologue = true
		}
	}
}
