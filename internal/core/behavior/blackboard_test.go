package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

func TestBlackboardDefaultsThenSet(t *testing.T) {
	bb := NewBlackboard()

	assert.Equal(t, 7, bb.Int("PatrolIndex", 7))
	bb.SetInt("PatrolIndex", 2)
	assert.Equal(t, 2, bb.Int("PatrolIndex", 7))

	assert.True(t, bb.Bool("InCenter", true))
	bb.SetBool("InCenter", false)
	assert.False(t, bb.Bool("InCenter", true))

	assert.Equal(t, world.NoPlayer, bb.Player("Target"))
	bb.SetPlayer("Target", 12)
	assert.Equal(t, world.PlayerID(12), bb.Player("Target"))
}

func TestBlackboardGetDefaultThenSet(t *testing.T) {
	cases := map[string]struct {
		key  string
		def  float64
		set  float64
		want float64
	}{
		"missing float": {key: "Missing", def: 1.5, set: 3.0, want: 3.0},
		"zero value":    {key: "Energy", def: -1, set: 0, want: 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			bb := NewBlackboard()
			assert.Equal(t, tc.def, Get(bb, tc.key, tc.def))
			assert.False(t, bb.Has(tc.key), "reading does not store the default")

			Set(bb, tc.key, tc.set)
			assert.Equal(t, tc.want, Get(bb, tc.key, tc.def))
		})
	}
}

func TestBlackboardKindMismatchReturnsDefault(t *testing.T) {
	bb := NewBlackboard()
	bb.SetInt("Ship", 3)

	assert.Equal(t, 1.5, bb.Float("Ship", 1.5))
	assert.False(t, bb.Bool("Ship", false))
	assert.Equal(t, KindInt, bb.Kind("Ship"))

	bb.SetFloat("Ship", 4)
	assert.Equal(t, 0, bb.Int("Ship", 0), "set overwrites the kind")
	assert.Equal(t, KindFloat, bb.Kind("Ship"))
}

func TestBlackboardGenericAccess(t *testing.T) {
	bb := NewBlackboard()
	Set(bb, "Solution", physics.V(3, 4))
	assert.Equal(t, physics.V(3, 4), Get(bb, "Solution", physics.Vec2{}))

	nodes := []physics.Vec2{physics.V(1, 1), physics.V(2, 2)}
	bb.SetPath("PatrolNodes", nodes)
	nodes[0] = physics.V(9, 9)
	assert.Equal(t, physics.V(1, 1), bb.Path("PatrolNodes")[0], "paths are copied on set")

	got := bb.Path("PatrolNodes")
	got[1] = physics.V(7, 7)
	assert.Equal(t, physics.V(2, 2), bb.Path("PatrolNodes")[1], "paths are copied on get")

	assert.Nil(t, bb.Path("Missing"))
}

func TestBlackboardKeysAndDelete(t *testing.T) {
	bb := NewBlackboard()
	bb.SetBool("b", true)
	bb.SetInt("a", 1)
	bb.SetVec2("c", physics.V(1, 2))

	assert.Equal(t, []string{"a", "b", "c"}, bb.Keys())
	assert.True(t, bb.Has("a"))
	bb.Delete("a")
	assert.False(t, bb.Has("a"))
	assert.Equal(t, KindNone, bb.Kind("a"))
	assert.Equal(t, 2, bb.Len())

	snap := bb.Snapshot()
	assert.Equal(t, true, snap["b"])
	assert.Equal(t, [2]float64{1, 2}, snap["c"])
}
