// Package metadata accumulates injection usage across calls.
package metadata

import (
	"slices"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

// Entry is the usage record of one binding.
type Entry struct {
	Import    registry.Binding `json:"import"    yaml:"import"`
	Count     int              `json:"count"     yaml:"count"`
	ModuleIDs []string         `json:"moduleIds" yaml:"moduleIds"`
}

// Snapshot is a point-in-time copy of the tracked usage keyed by final name.
type Snapshot struct {
	InjectionUsage map[string]Entry `json:"injectionUsage" yaml:"injectionUsage"`
}

// Names returns the tracked final names in lexical order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.InjectionUsage))
	for name := range s.InjectionUsage {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Tracker is a concurrency-safe usage accumulator.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*Entry)}
}

// Record counts one injection of each binding for moduleID. An empty
// moduleID still counts but is not listed.
func (t *Tracker) Record(bindings []registry.Binding, moduleID string) {
	if len(bindings) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range bindings {
		name := b.FinalName()

		entry, ok := t.entries[name]
		if !ok {
			entry = &Entry{Import: b}
			t.entries[name] = entry
		}

		entry.Import = b
		entry.Count++

		if moduleID != "" && !slices.Contains(entry.ModuleIDs, moduleID) {
			entry.ModuleIDs = append(entry.ModuleIDs, moduleID)
		}
	}
}

// Snapshot returns a deep copy of the tracked usage.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{InjectionUsage: make(map[string]Entry, len(t.entries))}

	for name, entry := range t.entries {
		ids := make([]string, len(entry.ModuleIDs))
		copy(ids, entry.ModuleIDs)

		snap.InjectionUsage[name] = Entry{Import: entry.Import, Count: entry.Count, ModuleIDs: ids}
	}

	return snap
}

// Reset drops all tracked usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[string]*Entry)
}
