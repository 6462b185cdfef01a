package scanner

import "strings"

// cursor is a throwaway reader used to parse import and export statements
// without disturbing the main scan state.
type cursor struct {
	src string
	pos int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) peek() byte {
	if c.done() {
		return 0
	}

	return c.src[c.pos]
}

// skipTrivia skips whitespace and comments.
func (c *cursor) skipTrivia() {
	c.pos = skipTrivia(c.src, c.pos)
}

// skipInline skips spaces and tabs only.
func (c *cursor) skipInline() {
	for !c.done() && (c.src[c.pos] == ' ' || c.src[c.pos] == '\t') {
		c.pos++
	}
}

func (c *cursor) eat(b byte) bool {
	if c.peek() != b {
		return false
	}

	c.pos++

	return true
}

// word consumes the keyword w when it appears as a whole word.
func (c *cursor) word(w string) bool {
	if !strings.HasPrefix(c.src[c.pos:], w) {
		return false
	}

	end := c.pos + len(w)
	if end < len(c.src) && isIdentChar(c.src[end]) {
		return false
	}

	c.pos = end

	return true
}

func (c *cursor) ident() (string, bool) {
	if c.done() || !isIdentStart(c.src[c.pos]) {
		return "", false
	}

	start := c.pos
	c.pos = identEnd(c.src, c.pos)

	return c.src[start:c.pos], true
}

// stringLit reads a quoted module specifier.
func (c *cursor) stringLit() (string, byte, bool) {
	quote := c.peek()
	if quote != '\'' && quote != '"' {
		return "", 0, false
	}

	var value strings.Builder

	for i := c.pos + 1; i < len(c.src); i++ {
		switch ch := c.src[i]; ch {
		case '\\':
			if i+1 < len(c.src) {
				i++
				value.WriteByte(c.src[i])
			}
		case quote:
			c.pos = i + 1

			return value.String(), quote, true
		case '\n':
			return "", 0, false
		default:
			value.WriteByte(ch)
		}
	}

	return "", 0, false
}

// skipBlock skips a balanced `{ … }` group, strings included.
func (c *cursor) skipBlock() bool {
	if !c.eat('{') {
		return false
	}

	depth := 1

	for !c.done() && depth > 0 {
		c.skipTrivia()

		if c.done() {
			break
		}

		switch c.peek() {
		case '{':
			depth++
			c.pos++
		case '}':
			depth--
			c.pos++
		case '\'', '"':
			if _, _, ok := c.stringLit(); !ok {
				return false
			}
		default:
			c.pos++
		}
	}

	return depth == 0
}

// typeModifier consumes a TypeScript `type` modifier that introduces the
// given continuation, leaving `type` untouched when it is itself a name.
func (c *cursor) typeModifier() bool {
	save := c.pos
	if !c.word("type") {
		return false
	}

	c.skipTrivia()

	next := c.peek()
	if next == '{' || next == '*' {
		return true
	}

	probe := *c
	if name, ok := probe.ident(); ok && name != "from" && name != "as" {
		return true
	}

	c.pos = save

	return false
}

// finishStatement consumes optional import attributes and a terminator.
func (c *cursor) finishStatement() (end int, semicolon bool) {
	end = c.pos

	probe := *c
	probe.skipInline()

	if probe.word("with") || probe.word("assert") {
		probe.skipTrivia()

		if probe.peek() == '{' && probe.skipBlock() {
			c.pos = probe.pos
			end = c.pos
		}
	}

	c.skipInline()

	if c.eat(';') {
		return c.pos, true
	}

	c.pos = end

	return end, false
}

// parseSpecifiers reads `{ a, b as c, type d }` starting at `{`.
func (c *cursor) parseSpecifiers() ([]NamedSpecifier, int, bool) {
	if !c.eat('{') {
		return nil, 0, false
	}

	var specs []NamedSpecifier

	for {
		c.skipTrivia()

		if c.peek() == '}' {
			closeAt := c.pos
			c.pos++

			return specs, closeAt, true
		}

		spec, ok := c.parseSpecifier()
		if !ok {
			return nil, 0, false
		}

		specs = append(specs, spec)

		c.skipTrivia()

		if c.eat(',') {
			continue
		}

		if c.peek() != '}' {
			return nil, 0, false
		}
	}
}

func (c *cursor) parseSpecifier() (NamedSpecifier, bool) {
	spec := NamedSpecifier{Start: c.pos}

	probe := *c
	if probe.word("type") {
		probe.skipTrivia()

		next := probe
		name, isName := next.ident()

		if (isName && name != "as") || probe.peek() == '\'' || probe.peek() == '"' {
			spec.TypeOnly = true
			spec.Start = probe.pos
			c.pos = probe.pos
		}
	}

	if name, ok := c.ident(); ok {
		spec.Imported = name
	} else if name, _, ok := c.stringLit(); ok {
		spec.Imported = name
	} else {
		return NamedSpecifier{}, false
	}

	spec.Local = spec.Imported
	spec.End = c.pos

	probe = *c
	probe.skipTrivia()

	if probe.word("as") {
		probe.skipTrivia()

		local, ok := probe.ident()
		if !ok {
			local, _, ok = probe.stringLit()
		}

		if !ok {
			return NamedSpecifier{}, false
		}

		spec.Local = local
		spec.End = probe.pos
		c.pos = probe.pos
	}

	return spec, true
}

// parseImport parses an import declaration whose keyword spans [start, afterKeyword).
func parseImport(src string, start, afterKeyword int) (ImportDecl, int, bool) {
	c := &cursor{src: src, pos: afterKeyword}
	decl := ImportDecl{Start: start}

	c.skipTrivia()
	decl.TypeOnly = c.typeModifier()

	if q := c.peek(); q == '\'' || q == '"' {
		return c.finishImport(decl)
	}

	if name, ok := c.ident(); ok {
		decl.Default = name

		c.skipTrivia()

		if !c.eat(',') {
			return c.fromClause(decl)
		}

		c.skipTrivia()
	}

	switch c.peek() {
	case '*':
		c.pos++
		c.skipTrivia()

		if !c.word("as") {
			return ImportDecl{}, 0, false
		}

		c.skipTrivia()

		ns, ok := c.ident()
		if !ok {
			return ImportDecl{}, 0, false
		}

		decl.Namespace = ns
	case '{':
		decl.BraceOpen = c.pos

		specs, closeAt, ok := c.parseSpecifiers()
		if !ok {
			return ImportDecl{}, 0, false
		}

		decl.Named = specs
		decl.BraceClose = closeAt
		decl.HasNamedList = true
	default:
		if decl.Default == "" {
			return ImportDecl{}, 0, false
		}
	}

	return c.fromClause(decl)
}

func (c *cursor) fromClause(decl ImportDecl) (ImportDecl, int, bool) {
	c.skipTrivia()

	if !c.word("from") {
		return ImportDecl{}, 0, false
	}

	c.skipTrivia()

	return c.finishImport(decl)
}

func (c *cursor) finishImport(decl ImportDecl) (ImportDecl, int, bool) {
	spec, quote, ok := c.stringLit()
	if !ok {
		return ImportDecl{}, 0, false
	}

	decl.Specifier = spec
	decl.Quote = quote
	decl.End, decl.HasSemicolon = c.finishStatement()

	return decl, decl.End, true
}

// exportStatement is the outcome of parsing an `export { … }` or
// `export * from` statement.
type exportStatement struct {
	reExport *ReExport
	locals   []NamedSpecifier
	end      int
}

// parseExport parses the export forms that list names. Other exports
// (`export const`, `export default`, …) are left to the main scan.
func parseExport(src string, start, afterKeyword int) (exportStatement, bool) {
	c := &cursor{src: src, pos: afterKeyword}

	c.skipTrivia()
	typeOnly := c.typeModifier()

	switch c.peek() {
	case '*':
		c.pos++
		c.skipTrivia()

		var names []string

		if c.word("as") {
			c.skipTrivia()

			name, ok := c.ident()
			if !ok {
				name, _, ok = c.stringLit()
			}

			if !ok {
				return exportStatement{}, false
			}

			names = append(names, name)
		}

		return c.exportFrom(start, names)
	case '{':
		specs, _, ok := c.parseSpecifiers()
		if !ok {
			return exportStatement{}, false
		}

		afterList := c.pos

		c.skipTrivia()

		probe := *c
		if probe.word("from") {
			names := make([]string, 0, len(specs))
			for _, spec := range specs {
				names = append(names, spec.Local)
			}

			return c.exportFrom(start, names)
		}

		c.pos = afterList
		end, _ := c.finishStatement()

		stmt := exportStatement{end: end}
		if !typeOnly {
			for _, spec := range specs {
				if !spec.TypeOnly && spec.Imported != "" && isIdentStart(src[spec.Start]) {
					stmt.locals = append(stmt.locals, spec)
				}
			}
		}

		return stmt, true
	default:
		return exportStatement{}, false
	}
}

func (c *cursor) exportFrom(start int, names []string) (exportStatement, bool) {
	c.skipTrivia()

	if !c.word("from") {
		return exportStatement{}, false
	}

	c.skipTrivia()

	spec, _, ok := c.stringLit()
	if !ok {
		return exportStatement{}, false
	}

	end, _ := c.finishStatement()

	return exportStatement{
		reExport: &ReExport{Specifier: spec, Names: names, Start: start, End: end},
		end:      end,
	}, true
}

// skipTrivia returns the first offset at or after pos that is not whitespace
// or part of a comment.
func skipTrivia(src string, pos int) int {
	for pos < len(src) {
		switch {
		case isSpace(src[pos]):
			pos++
		case strings.HasPrefix(src[pos:], "//"):
			nl := strings.IndexByte(src[pos:], '\n')
			if nl < 0 {
				return len(src)
			}

			pos += nl
		case strings.HasPrefix(src[pos:], "/*"):
			closeAt := strings.Index(src[pos+2:], "*/")
			if closeAt < 0 {
				return len(src)
			}

			pos += closeAt + len("/**/")
		default:
			return pos
		}
	}

	return pos
}
