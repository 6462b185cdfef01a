package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/internal/cache"
)

func TestLRU_GetPut(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](100)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1, 10)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(10), stats.CurrentSize)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
}

func TestLRU_PutExistingKeepsValue(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](100)
	c.Put("a", 1, 10)
	c.Put("a", 2, 10)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, int64(10), c.Stats().CurrentSize)
}

func TestLRU_EvictsWithinBudget(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[int, int](30)

	for i := range 10 {
		c.Put(i, i, 10)
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, int64(30))
	assert.Equal(t, 3, stats.Entries)

	got, ok := c.Get(9)
	require.True(t, ok, "most recent entry survives")
	assert.Equal(t, 9, got)
}

func TestLRU_PrefersEvictingColdEntries(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](3 * 1024)
	c.Put("hot", 1, 1024)
	c.Put("cold", 2, 1024)
	c.Put("warm", 3, 1024)

	for range 5 {
		_, _ = c.Get("hot")
	}

	_, _ = c.Get("warm")

	c.Put("new", 4, 1024)

	_, ok := c.Get("cold")
	assert.False(t, ok)

	_, ok = c.Get("hot")
	assert.True(t, ok)
}

func TestLRU_OversizedValueSkipped(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, string](8)
	c.Put("big", "x", 9)

	_, ok := c.Get("big")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestLRU_DefaultSizeAndClear(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](0)
	assert.Equal(t, int64(cache.DefaultMaxSize), c.Stats().MaxSize)

	c.Put("a", 1, 1)
	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Stats().CurrentSize)
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](1024)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 100 {
				key := fmt.Sprintf("k%d", (i*j)%50)
				c.Put(key, j, 8)
				_, _ = c.Get(key)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Stats().CurrentSize, int64(1024))
}
