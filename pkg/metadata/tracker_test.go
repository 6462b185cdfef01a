package metadata_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/pkg/metadata"
	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

var (
	import1 = registry.Binding{Name: "import1", As: "import1", From: "specifier1"}
	import2 = registry.Binding{Name: "import2", As: "import2", From: "specifier2"}
)

func TestTracker_Record(t *testing.T) {
	t.Parallel()

	tracker := metadata.NewTracker()

	tracker.Record([]registry.Binding{import1}, "foo")
	tracker.Record([]registry.Binding{import1, import2}, "bar")
	tracker.Record([]registry.Binding{import1}, "foo")
	tracker.Record([]registry.Binding{import2}, "")

	snap := tracker.Snapshot()

	require.Equal(t, []string{"import1", "import2"}, snap.Names())

	first := snap.InjectionUsage["import1"]
	assert.Equal(t, 3, first.Count)
	assert.Equal(t, []string{"foo", "bar"}, first.ModuleIDs)
	assert.Equal(t, import1, first.Import)

	second := snap.InjectionUsage["import2"]
	assert.Equal(t, 2, second.Count)
	assert.Equal(t, []string{"bar"}, second.ModuleIDs)
}

func TestTracker_SnapshotJSON(t *testing.T) {
	t.Parallel()

	tracker := metadata.NewTracker()
	tracker.Record([]registry.Binding{import1}, "foo")

	data, err := json.Marshal(tracker.Snapshot())
	require.NoError(t, err)

	assert.JSONEq(t, `{"injectionUsage":{"import1":{
		"import":{"name":"import1","as":"import1","from":"specifier1"},
		"count":1,
		"moduleIds":["foo"]}}}`, string(data))
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	tracker := metadata.NewTracker()
	tracker.Record([]registry.Binding{import1}, "foo")

	snap := tracker.Snapshot()
	snap.InjectionUsage["import1"].ModuleIDs[0] = "mutated"

	tracker.Record([]registry.Binding{import1}, "bar")

	again := tracker.Snapshot()
	assert.Equal(t, []string{"foo", "bar"}, again.InjectionUsage["import1"].ModuleIDs)
	assert.Equal(t, 1, snap.InjectionUsage["import1"].Count)
}

func TestTracker_Reset(t *testing.T) {
	t.Parallel()

	tracker := metadata.NewTracker()
	tracker.Record([]registry.Binding{import1}, "foo")
	tracker.Reset()

	assert.Empty(t, tracker.Snapshot().InjectionUsage)
}

func TestTracker_Concurrent(t *testing.T) {
	t.Parallel()

	const (
		workers = 8
		rounds  = 100
	)

	tracker := metadata.NewTracker()

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range rounds {
				tracker.Record([]registry.Binding{import1}, fmt.Sprintf("module-%d", w))
			}
		}()
	}

	wg.Wait()

	entry := tracker.Snapshot().InjectionUsage["import1"]
	assert.Equal(t, workers*rounds, entry.Count)
	assert.Len(t, entry.ModuleIDs, workers)
}
