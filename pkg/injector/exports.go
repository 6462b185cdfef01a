package injector

import (
	"strings"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

// RenderExports renders bindings as re-export declarations, one line per
// module in order of first appearance. Namespace bindings get their own
// `export * as` line.
func RenderExports(bindings []registry.Binding) string {
	var (
		modules []string
		named   = make(map[string][]registry.Binding)
		spaces  = make(map[string][]registry.Binding)
	)

	for _, b := range bindings {
		if _, ok := named[b.From]; !ok {
			if _, ok := spaces[b.From]; !ok {
				modules = append(modules, b.From)
			}
		}

		if b.IsNamespace() {
			spaces[b.From] = append(spaces[b.From], b)
		} else {
			named[b.From] = append(named[b.From], b)
		}
	}

	var out strings.Builder

	for _, from := range modules {
		if list := named[from]; len(list) > 0 {
			out.WriteString("export { " + namedList(list) + " } from " + quote(from) + ";\n")
		}

		for _, ns := range spaces[from] {
			out.WriteString("export * as " + ns.FinalName() + " from " + quote(from) + ";\n")
		}
	}

	return out.String()
}
