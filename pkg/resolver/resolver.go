// Package resolver decides which registered bindings a scanned source uses
// without already importing them.
package resolver

import (
	"sort"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
	"github.com/Sumatoshi-tech/autoimport/pkg/scanner"
)

// Pending is a binding used in code but not supplied by any import.
type Pending struct {
	Binding registry.Binding

	// First is the earliest real-code occurrence of the binding's final name.
	First scanner.Occurrence
}

// Resolve returns the pending bindings of res in registry registration order.
// A name bound by any existing import declaration, type-only ones included,
// is never pending.
func Resolve(res *scanner.Result, reg *registry.Registry) []Pending {
	if res == nil || reg == nil || reg.Len() == 0 {
		return nil
	}

	provided := res.Provided()
	seen := make(map[string]bool)

	var pending []Pending

	for _, occ := range res.Occurrences {
		if seen[occ.Name] || provided[occ.Name] {
			continue
		}

		binding, ok := reg.Lookup(occ.Name)
		if !ok {
			continue
		}

		seen[occ.Name] = true

		pending = append(pending, Pending{Binding: binding, First: occ})
	}

	sort.SliceStable(pending, func(i, j int) bool {
		left, _ := reg.Index(pending[i].Binding.As)
		right, _ := reg.Index(pending[j].Binding.As)

		return left < right
	})

	return pending
}

// Names returns the final names of the pending bindings.
func Names(pending []Pending) []string {
	names := make([]string, 0, len(pending))
	for _, p := range pending {
		names = append(names, p.Binding.As)
	}

	return names
}
