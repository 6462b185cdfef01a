// Package registry normalizes the configured auto-import catalog into an
// ordered lookup table keyed by the final bound name of each binding.
package registry

import (
	"errors"
	"fmt"
)

// NamespaceName is the binding name that requests a namespace import
// (`import * as alias from 'mod'`).
const NamespaceName = "*"

// Sentinel errors for catalog validation.
var (
	// ErrEmptyName indicates a binding without a name.
	ErrEmptyName = errors.New("binding name must not be empty")
	// ErrEmptyFrom indicates a binding without a module specifier.
	ErrEmptyFrom = errors.New("binding module specifier must not be empty")
	// ErrNamespaceAlias indicates a namespace binding without an alias.
	ErrNamespaceAlias = errors.New("namespace binding requires an alias")
)

// Binding is a single catalog entry: an identifier importable from a module.
type Binding struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	As   string `json:"as"   yaml:"as"   mapstructure:"as"`
	From string `json:"from" yaml:"from" mapstructure:"from"`
}

// FinalName returns the identifier that must appear in code to trigger
// injection: the alias when present, otherwise the declared name.
func (b Binding) FinalName() string {
	if b.As != "" {
		return b.As
	}

	return b.Name
}

// IsNamespace reports whether the binding is a namespace import.
func (b Binding) IsNamespace() bool {
	return b.Name == NamespaceName
}

// Aliased reports whether the final name differs from the imported name.
func (b Binding) Aliased() bool {
	return b.FinalName() != b.Name
}

// Duplicate records a final-name collision resolved during registration.
type Duplicate struct {
	Replaced Binding
	Winner   Binding
}

// Registry is an immutable, registration-ordered table of bindings.
type Registry struct {
	bindings   []Binding
	index      map[string]int
	duplicates []Duplicate
}

// New validates and registers the given bindings in order. When two bindings
// share a final name, the later one replaces the earlier one and keeps the
// earlier registration slot; the collision is reported by Duplicates.
func New(bindings []Binding) (*Registry, error) {
	reg := &Registry{
		bindings: make([]Binding, 0, len(bindings)),
		index:    make(map[string]int, len(bindings)),
	}

	for pos, binding := range bindings {
		err := validate(binding)
		if err != nil {
			return nil, fmt.Errorf("binding %d (%q from %q): %w", pos, binding.Name, binding.From, err)
		}

		binding.As = binding.FinalName()

		if slot, ok := reg.index[binding.As]; ok {
			reg.duplicates = append(reg.duplicates, Duplicate{Replaced: reg.bindings[slot], Winner: binding})
			reg.bindings[slot] = binding

			continue
		}

		reg.index[binding.As] = len(reg.bindings)
		reg.bindings = append(reg.bindings, binding)
	}

	return reg, nil
}

func validate(binding Binding) error {
	if binding.Name == "" {
		return ErrEmptyName
	}

	if binding.From == "" {
		return ErrEmptyFrom
	}

	if binding.IsNamespace() && binding.As == "" {
		return ErrNamespaceAlias
	}

	return nil
}

// Lookup returns the binding registered under the given final name.
func (r *Registry) Lookup(name string) (Binding, bool) {
	slot, ok := r.index[name]
	if !ok {
		return Binding{}, false
	}

	return r.bindings[slot], true
}

// Index returns the registration position of the given final name.
func (r *Registry) Index(name string) (int, bool) {
	slot, ok := r.index[name]

	return slot, ok
}

// Bindings returns a copy of all bindings in registration order.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)

	return out
}

// Duplicates returns the final-name collisions seen during registration.
func (r *Registry) Duplicates() []Duplicate {
	out := make([]Duplicate, len(r.duplicates))
	copy(out, r.duplicates)

	return out
}

// Len returns the number of distinct final names.
func (r *Registry) Len() int {
	return len(r.bindings)
}
