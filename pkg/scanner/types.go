package scanner

// Occurrence is a real-code identifier span.
type Occurrence struct {
	Name  string
	Start int
	End   int

	// InPrologue is true when the occurrence lies before the end of the line
	// on which the leading import block ends.
	InPrologue bool
}

// NamedSpecifier is one entry of an import or export brace list.
type NamedSpecifier struct {
	Imported string
	Local    string
	Start    int
	End      int
	TypeOnly bool
}

// ImportDecl is an import declaration parsed minimally from the source.
type ImportDecl struct {
	Specifier string
	Default   string
	Namespace string
	Named     []NamedSpecifier

	// Start and End delimit the whole statement, terminator included.
	Start int
	End   int

	// BraceOpen and BraceClose are the offsets of `{` and `}` when
	// HasNamedList is set.
	BraceOpen    int
	BraceClose   int
	HasNamedList bool

	Quote        byte
	HasSemicolon bool
	TypeOnly     bool
}

// SideEffect reports whether the declaration binds no names (`import 'mod'`).
func (d *ImportDecl) SideEffect() bool {
	return d.Default == "" && d.Namespace == "" && !d.HasNamedList
}

// LocalNames returns every identifier the declaration binds in module scope.
func (d *ImportDecl) LocalNames() []string {
	names := make([]string, 0, len(d.Named)+2)

	if d.Default != "" {
		names = append(names, d.Default)
	}

	if d.Namespace != "" {
		names = append(names, d.Namespace)
	}

	for _, spec := range d.Named {
		names = append(names, spec.Local)
	}

	return names
}

// ReExport is an `export … from` declaration. Its names are never usages.
type ReExport struct {
	Specifier string
	Names     []string
	Start     int
	End       int
}

// Result is the output of a single scan.
type Result struct {
	Source string

	// Start is the first offset after an optional `#!` line.
	Start int

	// LeadingEnd is the end offset of the leading import block, or -1.
	LeadingEnd int

	Occurrences []Occurrence
	Imports     []ImportDecl
	ReExports   []ReExport
}

// HasLeadingBlock reports whether the source starts with import declarations.
func (r *Result) HasLeadingBlock() bool {
	return r.LeadingEnd >= 0
}

// Provided returns the set of names bound by existing import declarations.
func (r *Result) Provided() map[string]bool {
	provided := make(map[string]bool)

	for i := range r.Imports {
		for _, name := range r.Imports[i].LocalNames() {
			provided[name] = true
		}
	}

	return provided
}
