package bot

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/skirmish/internal/core/nav/cache"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

const dt = 0.1

func openArena() *tilemap.Grid {
	g := tilemap.NewGrid(40, 30)
	g.Border()
	return g
}

// baseMap is an arena on the left and a base on the right, split by a solid wall.
func baseMap() *tilemap.Grid {
	g := tilemap.NewGrid(60, 30)
	g.Border()
	g.Fill(29, 1, 30, 28, tilemap.TileSolid)
	return g
}

func pilot(id world.PlayerID, freq world.Frequency, x, y, heading float64) world.Player {
	return world.Player{
		ID:        id,
		Name:      fmt.Sprintf("pilot-%d", id),
		Position:  physics.V(x, y),
		Heading:   heading,
		Ship:      world.Warbird,
		Frequency: freq,
		Energy:    1500,
		Active:    true,
	}
}

func snapshotOf(m tilemap.Map, players ...world.Player) *world.Snapshot {
	return &world.Snapshot{Self: players[0].ID, Players: players, Map: m, Settings: world.DefaultSettings()}
}

func newTestBot(t *testing.T, cfg Config, opts ...Option) *Bot {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 7
	}
	opts = append([]Option{WithLogger(log.NewNop())}, opts...)
	b, err := New(cfg, opts...)
	require.NoError(t, err)
	return b
}

func tick(t *testing.T, b *Bot, step float64, snap *world.Snapshot) world.Intents {
	t.Helper()
	intents, err := b.Update(context.Background(), step, snap)
	require.NoError(t, err)
	return intents
}

func TestNewDefaults(t *testing.T) {
	b := newTestBot(t, DefaultConfig())

	_, err := uuid.Parse(b.ID())
	assert.NoError(t, err)
	assert.Equal(t, world.NoPlayer, b.Blackboard().Player(KeyTarget))
	assert.Equal(t, int(world.NoFrequency), b.Blackboard().Int(KeyFreq, 0))
	assert.Equal(t, 1, b.Blackboard().Int(KeyPubTeam1, -1))
	assert.Nil(t, b.Regions())

	cfg := DefaultConfig()
	cfg.ID = "alpha"
	cfg.SearchWindow = 0
	cfg.Stickiness = -1
	b = newTestBot(t, cfg)
	assert.Equal(t, "alpha", b.ID())
	assert.Equal(t, 100, b.Config().SearchWindow)
	assert.Equal(t, 2.5, b.Config().Stickiness)
}

func TestNewRejectsMissingTreeFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tree = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(cfg, WithLogger(log.NewNop()))
	assert.Error(t, err)
}

func TestUpdateValidatesSnapshot(t *testing.T) {
	b := newTestBot(t, DefaultConfig())

	_, err := b.Update(context.Background(), dt, nil)
	assert.ErrorIs(t, err, ErrNoMap)

	snap := snapshotOf(openArena(), pilot(1, 0, 10, 15, 0))
	snap.Self = 42
	_, err = b.Update(context.Background(), dt, snap)
	assert.ErrorIs(t, err, ErrSelfMissing)
}

func TestDefaultTreeShootsVisibleEnemy(t *testing.T) {
	b := newTestBot(t, DefaultConfig())
	snap := snapshotOf(openArena(),
		pilot(1, 0, 10, 15, math.Pi/2),
		pilot(2, 1, 22, 15, 0),
	)

	intents := tick(t, b, dt, snap)

	bb := b.Blackboard()
	assert.Equal(t, world.PlayerID(2), bb.Player(KeyTarget))
	assert.True(t, bb.Bool(KeyInCenter, false))
	assert.True(t, bb.Bool(KeyTargetInSight, false))
	assert.True(t, intents.Keys.Pressed(world.KeyGun), "keys: %v", intents.Keys)
	assert.True(t, intents.Keys.Pressed(world.KeyUp), "keys: %v", intents.Keys)
	assert.Greater(t, intents.Force.X, 0.0)

	solution := bb.Vec2(KeySolution, physics.Vec2{})
	assert.InDelta(t, 22, solution.X, 1e-6)
	assert.InDelta(t, 15, solution.Y, 1e-6)
}

func TestDefaultTreePathsAroundWall(t *testing.T) {
	m := openArena()
	m.Fill(20, 1, 20, 22, tilemap.TileSolid)

	cfg := DefaultConfig()
	cfg.Center = physics.V(10.5, 5.5)
	b := newTestBot(t, cfg)
	snap := snapshotOf(m,
		pilot(1, 0, 10, 10, math.Pi/2),
		pilot(2, 1, 30, 10, 0),
	)

	intents := tick(t, b, dt, snap)

	assert.Equal(t, world.PlayerID(2), b.Blackboard().Player(KeyTarget))
	assert.False(t, b.Blackboard().Bool(KeyTargetInSight, true))
	assert.False(t, intents.Keys.Pressed(world.KeyGun))
	assert.False(t, intents.Force.IsZero())

	p := b.Pathfinder().Path()
	require.NotEmpty(t, p)
	assert.Equal(t, physics.V(30, 10), p[len(p)-1])
}

func TestIdleWhenDead(t *testing.T) {
	b := newTestBot(t, DefaultConfig())
	me := pilot(1, 0, 10, 15, 0)
	me.Active = false
	me.Velocity = physics.V(5, 0)

	intents := tick(t, b, dt, snapshotOf(openArena(), me, pilot(2, 1, 22, 15, 0)))

	assert.InDelta(t, -5, intents.Force.X, 1e-9)
	assert.InDelta(t, 0, intents.Force.Y, 1e-9)
	assert.False(t, intents.Keys.Pressed(world.KeyGun))
}

func TestSetShipCooldown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ship = world.Javelin
	b := newTestBot(t, cfg)
	snap := snapshotOf(openArena(), pilot(1, 0, 10, 15, 0))

	intents := tick(t, b, 0.1, snap)
	assert.True(t, intents.HasShipRequest)
	assert.Equal(t, world.Javelin, intents.ShipRequest)

	intents = tick(t, b, 0.05, snap)
	assert.False(t, intents.HasShipRequest)

	intents = tick(t, b, 0.2, snap)
	assert.True(t, intents.HasShipRequest)

	snap.Players[0].Ship = world.Javelin
	intents = tick(t, b, 0.5, snap)
	assert.False(t, intents.HasShipRequest)
}

func TestSetFreqClearsOnceJoined(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Freq = 3
	b := newTestBot(t, cfg)
	snap := snapshotOf(openArena(), pilot(1, 0, 10, 15, 0))

	intents := tick(t, b, dt, snap)
	assert.True(t, intents.HasFreqRequest)
	assert.Equal(t, world.Frequency(3), intents.FreqRequest)

	snap.Players[0].Frequency = 3
	intents = tick(t, b, dt, snap)
	assert.False(t, intents.HasFreqRequest)
	assert.Equal(t, int(world.NoFrequency), b.Blackboard().Int(KeyFreq, 0))
}

func TestTargetStickiness(t *testing.T) {
	cases := map[string]struct {
		stickiness float64
		want       world.PlayerID
	}{
		"keeps current target": {stickiness: 2.5, want: 2},
		"switches to cheaper":  {stickiness: 1, want: 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Stickiness = tc.stickiness
			b := newTestBot(t, cfg)
			m := openArena()

			tick(t, b, dt, snapshotOf(m,
				pilot(1, 0, 10, 15, math.Pi/2),
				pilot(2, 1, 20, 15, 0),
				pilot(3, 1, 10, 25, 0),
			))
			require.Equal(t, world.PlayerID(2), b.Blackboard().Player(KeyTarget))

			tick(t, b, dt, snapshotOf(m,
				pilot(1, 0, 10, 15, math.Pi/2),
				pilot(2, 1, 30, 15, 0),
				pilot(3, 1, 10, 25, 0),
			))
			assert.Equal(t, tc.want, b.Blackboard().Player(KeyTarget))
		})
	}
}

func TestCloakedEnemyIgnoredWithoutXRadar(t *testing.T) {
	b := newTestBot(t, DefaultConfig())
	enemy := pilot(2, 1, 22, 15, 0)
	enemy.Status = world.StatusCloak

	tick(t, b, dt, snapshotOf(openArena(), pilot(1, 0, 10, 15, math.Pi/2), enemy))
	assert.Equal(t, world.NoPlayer, b.Blackboard().Player(KeyTarget))

	me := pilot(1, 0, 10, 15, math.Pi/2)
	me.Status = world.StatusXRadar
	tick(t, b, dt, snapshotOf(openArena(), me, enemy))
	assert.Equal(t, world.PlayerID(2), b.Blackboard().Player(KeyTarget))
}

func baseConfig(anchor bool) Config {
	cfg := DefaultConfig()
	cfg.Tree = TreeBase
	cfg.IsAnchor = anchor
	cfg.Center = physics.V(10.5, 15.5)
	cfg.BaseRoutes = []BaseRoute{{Start: physics.V(33, 15), End: physics.V(56, 15)}}
	cfg.Pathfinding.Smooth = false
	return cfg
}

func baseSnapshot() *world.Snapshot {
	return snapshotOf(baseMap(),
		pilot(1, 0, 36.5, 15.5, math.Pi/2),
		pilot(2, 1, 52.5, 15.5, 0),
	)
}

func TestBaseTreeAnchorBacksOff(t *testing.T) {
	b := newTestBot(t, baseConfig(true))
	intents := tick(t, b, dt, baseSnapshot())

	require.Len(t, b.BasePaths(), 1)
	require.Len(t, b.BasePaths()[0], 23)
	assert.Equal(t, physics.V(56, 15), b.BasePaths()[0][22])

	bb := b.Blackboard()
	assert.False(t, bb.Bool(KeyInCenter, true))
	assert.Equal(t, world.PlayerID(2), bb.Player(KeyTarget))
	// 36 tiles of bullet travel against 16 tiles of path
	assert.InDelta(t, 20, bb.Float(KeyEnemyNetBulletTravel, 0), 1e-6)

	p := b.Pathfinder().Path()
	require.NotEmpty(t, p)
	assert.Equal(t, physics.V(34.5, 15.5), p[len(p)-1])

	assert.True(t, intents.Keys.Pressed(world.KeyDown), "keys: %v", intents.Keys)
	assert.False(t, intents.Keys.Pressed(world.KeyUp), "keys: %v", intents.Keys)
	assert.True(t, intents.Keys.Pressed(world.KeyGun), "keys: %v", intents.Keys)
	assert.False(t, bb.Bool(KeySteerBackwards, true))
}

func TestBaseTreeRusherPushes(t *testing.T) {
	b := newTestBot(t, baseConfig(false))
	intents := tick(t, b, dt, baseSnapshot())

	assert.False(t, b.Blackboard().Bool(KeyLastInBase, true))

	p := b.Pathfinder().Path()
	require.NotEmpty(t, p)
	assert.Equal(t, physics.V(56, 15), p[len(p)-1])

	assert.True(t, intents.Keys.Pressed(world.KeyUp), "keys: %v", intents.Keys)
	assert.False(t, intents.Keys.Pressed(world.KeyDown), "keys: %v", intents.Keys)
	assert.True(t, intents.Keys.Pressed(world.KeyGun), "keys: %v", intents.Keys)
}

func TestBaseTreeFallsBackToCenter(t *testing.T) {
	b := newTestBot(t, baseConfig(true))
	snap := snapshotOf(baseMap(),
		pilot(1, 0, 10.5, 10.5, math.Pi/2),
		pilot(2, 1, 20.5, 10.5, 0),
	)

	intents := tick(t, b, dt, snap)
	assert.True(t, b.Blackboard().Bool(KeyInCenter, false))
	assert.Equal(t, world.PlayerID(2), b.Blackboard().Player(KeyTarget))
	assert.True(t, intents.Keys.Pressed(world.KeyGun))
}

func TestMapChangeReloads(t *testing.T) {
	b := newTestBot(t, DefaultConfig())
	me := pilot(1, 0, 10, 15, 0)

	tick(t, b, dt, snapshotOf(openArena(), me))
	first := b.Regions()
	require.NotNil(t, first)

	// same content, new value
	tick(t, b, dt, snapshotOf(openArena(), me))
	assert.Same(t, first, b.Regions())

	walled := openArena()
	walled.Fill(20, 1, 20, 28, tilemap.TileSolid)
	tick(t, b, dt, snapshotOf(walled, me))
	assert.NotSame(t, first, b.Regions())
	assert.False(t, b.Regions().IsConnected(physics.V(10, 15), physics.V(30, 15)))
}

func TestRadiusChangeRebuilds(t *testing.T) {
	b := newTestBot(t, DefaultConfig())
	m := openArena()
	snap := snapshotOf(m, pilot(1, 0, 10, 15, 0))

	tick(t, b, dt, snap)
	assert.Equal(t, 0.875, b.Pathfinder().Radius())

	snap.Settings.Ships[world.Warbird].Radius = 1.5
	tick(t, b, dt, snap)
	assert.Equal(t, 1.5, b.Pathfinder().Radius())
	assert.Equal(t, 1.5, b.Regions().Radius())
}

func TestSharedRegionCache(t *testing.T) {
	c := cache.NewRegions(log.NewNop())
	m := openArena()

	cfg := DefaultConfig()
	cfg.ID = "a"
	first := newTestBot(t, cfg, WithRegionCache(c))
	cfg.ID = "b"
	second := newTestBot(t, cfg, WithRegionCache(c))

	tick(t, first, dt, snapshotOf(m, pilot(1, 0, 10, 15, 0)))
	tick(t, second, dt, snapshotOf(m, pilot(2, 1, 30, 15, 0)))

	assert.Equal(t, 1, c.Builds())
	assert.Same(t, first.Regions(), second.Regions())
}

func TestMineSweeperRepels(t *testing.T) {
	mine := func(owner world.PlayerID, x float64) world.Weapon {
		return world.Weapon{Owner: owner, Kind: world.WeaponMine, Position: physics.V(x, 15), Remaining: 10}
	}
	cases := map[string]struct {
		repels int
		weapon world.Weapon
		want   bool
	}{
		"enemy mine close":   {repels: 2, weapon: mine(2, 16), want: true},
		"out of repels":      {repels: 0, weapon: mine(2, 16)},
		"enemy mine too far": {repels: 2, weapon: mine(2, 19)},
		"own team mine":      {repels: 2, weapon: mine(3, 16)},
		"enemy bullet":       {repels: 2, weapon: world.Weapon{Owner: 2, Kind: world.WeaponBullet, Position: physics.V(12, 15)}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b := newTestBot(t, DefaultConfig())
			me := pilot(1, 0, 10, 15, math.Pi/2)
			me.Repels = tc.repels
			snap := snapshotOf(openArena(), me, pilot(2, 1, 30, 15, 0), pilot(3, 0, 10, 20, 0))
			snap.Weapons = []world.Weapon{tc.weapon}

			intents := tick(t, b, dt, snap)
			assert.Equal(t, tc.want, intents.Keys.Pressed(world.KeyRepel), "keys: %v", intents.Keys)
		})
	}
}

func TestCastWeaponInfluence(t *testing.T) {
	b := newTestBot(t, DefaultConfig())
	me := pilot(1, 0, 10, 15, math.Pi/2)
	enemy := pilot(2, 1, 30, 5, 0)
	snap := snapshotOf(openArena(), me, enemy, pilot(3, 0, 10, 25, 0))
	snap.Weapons = []world.Weapon{
		{Owner: 2, Position: physics.V(20.5, 15.5), Velocity: physics.V(-20, 0), Remaining: 1},
		{Owner: 3, Position: physics.V(10.5, 20.5), Velocity: physics.V(0, -20), Remaining: 1},
	}

	tick(t, b, dt, snap)
	inf := b.Influence()
	require.NotNil(t, inf)
	assert.Greater(t, inf.At(15, 15), float32(0))
	assert.Greater(t, inf.At(1, 15), float32(0))
	assert.Zero(t, inf.At(0, 15), "walls stop the flight")
	assert.Zero(t, inf.At(10, 18), "own team fire is ignored")

	spots := b.avoidPoints(me.Position)
	require.NotEmpty(t, spots)
	for _, p := range spots {
		assert.Equal(t, 15.5, p.Y)
	}

	// with the bullet gone, a healthy agent clears the lane in one second
	snap.Weapons = nil
	tick(t, b, 1, snap)
	assert.Zero(t, inf.At(15, 15))
	assert.Empty(t, b.avoidPoints(me.Position))
}
