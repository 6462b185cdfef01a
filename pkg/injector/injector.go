// Package injector turns pending bindings into import declarations and
// places them into the original source through offset-stable edits.
package injector

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
	"github.com/Sumatoshi-tech/autoimport/pkg/resolver"
	"github.com/Sumatoshi-tech/autoimport/pkg/scanner"
)

// Placement selects where synthesized declarations go.
type Placement int

const (
	// PlacementLeading inserts after the leading import block, or at the top
	// of the file when there is none.
	PlacementLeading Placement = iota
	// PlacementFirstUse inserts each module group after the last import
	// declaration that precedes its first usage.
	PlacementFirstUse
)

// String returns the placement name.
func (p Placement) String() string {
	switch p {
	case PlacementLeading:
		return "leading"
	case PlacementFirstUse:
		return "first-use"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// Options configures an Injector.
type Options struct {
	// MergeExisting adds names to an existing named import of the same module
	// instead of writing a new declaration.
	MergeExisting bool

	Placement Placement
}

// Injector plans and applies import insertions.
type Injector struct {
	opts Options
}

// New creates an Injector.
func New(opts Options) *Injector {
	return &Injector{opts: opts}
}

// Plan is the set of edits that supplies every pending binding.
type Plan struct {
	Edits []Edit

	// Injected lists the supplied bindings in registration order.
	Injected []registry.Binding

	// Merged lists the subset added to existing declarations.
	Merged []registry.Binding
}

// group is the pending bindings of one module.
type group struct {
	from       string
	named      []registry.Binding
	namespaces []registry.Binding
	first      scanner.Occurrence
}

func (g *group) statements() []string {
	stmts := make([]string, 0, len(g.namespaces)+1)

	if len(g.named) > 0 {
		stmts = append(stmts, "import { "+namedList(g.named)+" } from "+quote(g.from)+";")
	}

	for _, ns := range g.namespaces {
		stmts = append(stmts, "import * as "+ns.As+" from "+quote(g.from)+";")
	}

	return stmts
}

// Plan computes the edits for pending against the scan result res.
func (in *Injector) Plan(res *scanner.Result, pending []resolver.Pending) Plan {
	if res == nil || len(pending) == 0 {
		return Plan{}
	}

	var (
		plan    Plan
		builder editBuilder
	)

	groups := groupByModule(pending)

	for _, p := range pending {
		plan.Injected = append(plan.Injected, p.Binding)
	}

	if in.opts.MergeExisting {
		for _, g := range groups {
			if in.merge(res, g, &builder) {
				plan.Merged = append(plan.Merged, g.named...)
				g.named = nil
			}
		}
	}

	var (
		leading  []string
		anchors  []anchor
		atAnchor = make(map[anchor][]string)
	)

	for _, g := range groups {
		stmts := g.statements()
		if len(stmts) == 0 {
			continue
		}

		if in.opts.Placement == PlacementFirstUse {
			if at, ok := firstUseAnchor(res, g.first); ok {
				if _, seen := atAnchor[at]; !seen {
					anchors = append(anchors, at)
				}

				atAnchor[at] = append(atAnchor[at], stmts...)

				continue
			}
		}

		leading = append(leading, stmts...)
	}

	if len(leading) > 0 {
		offset, text := leadingInsertion(res, leading)
		builder.insert(offset, text)
	}

	for _, at := range anchors {
		text := strings.Join(atAnchor[at], "\n")

		if at.lineStart {
			builder.insert(at.offset, "\n"+text+"\n")
		} else {
			builder.insert(at.offset, "\n\n"+text)
		}
	}

	plan.Edits = builder.edits

	return plan
}

// Inject rewrites src so every pending binding is imported. It returns the
// new source and the supplied bindings. With nothing pending src is returned
// unchanged.
func (in *Injector) Inject(src string, res *scanner.Result, pending []resolver.Pending) (string, []registry.Binding, error) {
	plan := in.Plan(res, pending)
	if len(plan.Edits) == 0 {
		return src, nil, nil
	}

	out, err := ApplyEdits(src, plan.Edits)
	if err != nil {
		return "", nil, fmt.Errorf("inject imports: %w", err)
	}

	return out, plan.Injected, nil
}

func groupByModule(pending []resolver.Pending) []*group {
	var groups []*group

	byModule := make(map[string]*group)

	for _, p := range pending {
		g, ok := byModule[p.Binding.From]
		if !ok {
			g = &group{from: p.Binding.From, first: p.First}
			byModule[p.Binding.From] = g
			groups = append(groups, g)
		}

		if p.First.Start < g.first.Start {
			g.first = p.First
		}

		if p.Binding.IsNamespace() {
			g.namespaces = append(g.namespaces, p.Binding)
		} else {
			g.named = append(g.named, p.Binding)
		}
	}

	return groups
}

// merge adds the named members of g to the first non type-only declaration of
// the same module that has a brace list.
func (in *Injector) merge(res *scanner.Result, g *group, builder *editBuilder) bool {
	if len(g.named) == 0 {
		return false
	}

	for i := range res.Imports {
		decl := &res.Imports[i]
		if decl.Specifier != g.from || decl.TypeOnly || !decl.HasNamedList {
			continue
		}

		list := namedList(g.named)

		if len(decl.Named) == 0 {
			builder.replace(decl.BraceOpen+1, decl.BraceClose, " "+list+" ")

			return true
		}

		at := decl.BraceOpen + 1
		for at < decl.BraceClose && isBlank(res.Source[at]) {
			at++
		}

		builder.insert(at, list+", ")

		return true
	}

	return false
}

// anchor is a first-use insertion point. lineStart is set when offset begins
// the line after an import declaration, otherwise offset is the end of the
// declaration itself.
type anchor struct {
	offset    int
	lineStart bool
}

// firstUseAnchor places statements right after the last import declaration
// that ends before occ. Declarations are top-level, so the statements never
// land inside a block or an expression.
func firstUseAnchor(res *scanner.Result, occ scanner.Occurrence) (anchor, bool) {
	if occ.InPrologue {
		return anchor{}, false
	}

	last := -1

	for i := range res.Imports {
		if res.Imports[i].End <= occ.Start {
			last = i
		}
	}

	if last < 0 {
		return anchor{}, false
	}

	end := res.Imports[last].End

	if next, ok := lineBreakAfter(res.Source, end); ok && next <= occ.Start {
		return anchor{offset: next, lineStart: true}, true
	}

	return anchor{offset: end}, true
}

// leadingInsertion places stmts after the leading import block, or at the
// start of the source when there is none.
func leadingInsertion(res *scanner.Result, stmts []string) (int, string) {
	if !res.HasLeadingBlock() {
		return res.Start, strings.Join(stmts, "\n") + "\n"
	}

	if next, ok := lineBreakAfter(res.Source, res.LeadingEnd); ok {
		return next, strings.Join(stmts, "\n") + "\n"
	}

	return res.LeadingEnd, "\n" + strings.Join(stmts, "\n")
}

// lineBreakAfter returns the offset just past the line break that ends the
// line at pos, allowing only blanks and a line comment before it.
func lineBreakAfter(src string, pos int) (int, bool) {
	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t' || src[pos] == '\r') {
		pos++
	}

	if strings.HasPrefix(src[pos:], "//") {
		nl := strings.IndexByte(src[pos:], '\n')
		if nl < 0 {
			return 0, false
		}

		pos += nl
	}

	if pos < len(src) && src[pos] == '\n' {
		return pos + 1, true
	}

	return 0, false
}

func namedList(bindings []registry.Binding) string {
	parts := make([]string, 0, len(bindings))

	for _, b := range bindings {
		if b.Aliased() {
			parts = append(parts, b.Name+" as "+b.As)
		} else {
			parts = append(parts, b.Name)
		}
	}

	return strings.Join(parts, ", ")
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(specifier string) string {
	return "'" + quoteEscaper.Replace(specifier) + "'"
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
