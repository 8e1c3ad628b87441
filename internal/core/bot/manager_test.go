package bot

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/world"
)

func TestManagerRegistry(t *testing.T) {
	m := NewManager(nil, 0)

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		cfg := DefaultConfig()
		cfg.ID = id
		require.NoError(t, m.Add(newTestBot(t, cfg)))
	}

	cfg := DefaultConfig()
	cfg.ID = "alpha"
	assert.ErrorIs(t, m.Add(newTestBot(t, cfg)), ErrDuplicateAgent)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, m.IDs())

	b, ok := m.Get("bravo")
	require.True(t, ok)
	assert.Equal(t, "bravo", b.ID())

	assert.True(t, m.Remove("bravo"))
	assert.False(t, m.Remove("bravo"))
	_, ok = m.Get("bravo")
	assert.False(t, ok)
}

func TestManagerUpdate(t *testing.T) {
	m := NewManager(log.NewNop(), 2)
	arena := openArena()

	snaps := make(map[string]*world.Snapshot)
	for i := 0; i < 4; i++ {
		cfg := DefaultConfig()
		cfg.ID = fmt.Sprintf("agent-%d", i)
		require.NoError(t, m.Add(newTestBot(t, cfg)))

		id := world.PlayerID(i + 1)
		snaps[cfg.ID] = snapshotOf(arena,
			pilot(id, 0, 10, 15, math.Pi/2),
			pilot(100, 1, 22, 15, 0),
		)
	}
	snaps["unknown"] = snapshotOf(arena, pilot(9, 0, 10, 15, 0))

	out, err := m.Update(context.Background(), dt, snaps)
	require.NoError(t, err)
	assert.Len(t, out, 4)
	for id, intents := range out {
		assert.True(t, intents.Keys.Pressed(world.KeyGun), id)
	}
}

func TestManagerUpdateError(t *testing.T) {
	m := NewManager(log.NewNop(), 0)
	cfg := DefaultConfig()
	cfg.ID = "broken"
	require.NoError(t, m.Add(newTestBot(t, cfg)))

	_, err := m.Update(context.Background(), dt, map[string]*world.Snapshot{"broken": {}})
	assert.ErrorIs(t, err, ErrNoMap)
	assert.Contains(t, err.Error(), "agent broken")
}
