package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/skirmish/internal/core/nav/region"
	"github.com/zeusync/skirmish/internal/core/tilemap"
)

func arena() *tilemap.Grid {
	g := tilemap.NewGrid(32, 32)
	g.Border()
	return g
}

func TestRegionsSharesBuilds(t *testing.T) {
	c := NewRegions(nil)

	var wg sync.WaitGroup
	results := make([]*region.Registry, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.Get(arena(), 1)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, c.Builds())
	assert.Equal(t, 1, c.Len())
}

func TestRegionsKeyedByMapAndRadius(t *testing.T) {
	c := NewRegions(nil)

	a, err := c.Get(arena(), 1)
	require.NoError(t, err)
	b, err := c.Get(arena(), 2)
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	other := arena()
	other.Fill(10, 0, 10, 31, tilemap.TileSolid)
	d, err := c.Get(other, 1)
	require.NoError(t, err)
	assert.NotSame(t, a, d)
	assert.Equal(t, 3, c.Len())

	_, err = c.Get(arena(), -1)
	assert.ErrorIs(t, err, region.ErrInvalidRadius)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
