package sim

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/skirmish/internal/core/bot"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

func newAgent(t *testing.T, id string) *bot.Bot {
	t.Helper()
	cfg := bot.DefaultConfig()
	cfg.ID = id
	cfg.Seed = 3
	b, err := bot.New(cfg, bot.WithLogger(log.NewNop()))
	require.NoError(t, err)
	return b
}

// duel spawns a freq 0 ship at (10.5,10.5) facing right and a freq 1 ship at x facing left.
func duel(t *testing.T, x float64) *Sim {
	t.Helper()
	s := New(DefaultArena(), world.DefaultSettings(), bot.NewManager(log.NewNop(), 0), log.NewNop())
	_, err := s.Spawn(newAgent(t, "left"), world.Warbird, 0, physics.V(10.5, 10.5), math.Pi/2)
	require.NoError(t, err)
	_, err = s.Spawn(newAgent(t, "right"), world.Warbird, 1, physics.V(x, 10.5), 3*math.Pi/2)
	require.NoError(t, err)
	return s
}

func TestDefaultArena(t *testing.T) {
	m := DefaultArena()
	assert.Equal(t, 40, m.Width())
	assert.Equal(t, 30, m.Height())
}

func TestSpawnAndSnapshots(t *testing.T) {
	s := duel(t, 15.5)

	snaps := s.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, world.PlayerID(0), snaps["left"].Self)
	assert.Equal(t, world.PlayerID(1), snaps["right"].Self)
	assert.Len(t, snaps["left"].Players, 2)
	assert.Equal(t, physics.V(15.5, 10.5), snaps["left"].Players[1].Position)

	// occupied spawn points are moved to the nearest free tile
	id, err := s.Spawn(newAgent(t, "pillar"), world.Warbird, 0, physics.V(13.5, 7.5), 0)
	require.NoError(t, err)
	p := s.Players()[id]
	assert.NotEqual(t, physics.V(13.5, 7.5), p.Position)

	_, err = s.Spawn(newAgent(t, "pillar"), world.Warbird, 0, physics.V(5.5, 5.5), 0)
	assert.ErrorIs(t, err, bot.ErrDuplicateAgent)
}

func TestStepRunsAgents(t *testing.T) {
	s := duel(t, 22.5)

	require.NoError(t, s.Step(context.Background(), 0.1))
	assert.Equal(t, uint64(1), s.Tick())
	assert.InDelta(t, 0.1, s.Time(), 1e-12)

	left := s.Players()[0]
	assert.Greater(t, left.Position.X, 10.5)
	assert.Greater(t, s.Projectiles(), 0)

	assert.Error(t, s.Step(context.Background(), 0))
}

func TestProjectileDamageAndRespawn(t *testing.T) {
	s := duel(t, 14.5)
	shooter, victim := s.pilots[0], s.pilots[1]

	shot := projectile{owner: 0, freq: 0, pos: physics.V(12.5, 10.5), vel: physics.V(10, 0), expires: 100}
	s.projectiles = append(s.projectiles, shot)
	s.fly(0.1)
	assert.Equal(t, 1, s.Projectiles())
	s.fly(0.1)
	assert.Zero(t, s.Projectiles())
	assert.Equal(t, 1500-bulletDamage, victim.player.Energy)

	// friendly fire does nothing
	s.projectiles = append(s.projectiles, projectile{owner: 1, freq: 1, pos: physics.V(14.5, 10.5), expires: 100})
	s.fly(0.1)
	assert.Equal(t, 1500-bulletDamage, victim.player.Energy)
	s.projectiles = nil

	victim.player.Energy = 100
	s.projectiles = append(s.projectiles, projectile{owner: 0, freq: 0, pos: physics.V(14.5, 10.5), expires: 100})
	s.fly(0.1)
	assert.False(t, victim.player.Active)
	assert.Equal(t, 1, s.Kills()[0])
	assert.Equal(t, 1, s.Deaths()[1])
	assert.True(t, shooter.player.Active)

	s.respawn()
	assert.False(t, victim.player.Active)

	s.now += respawnDelay
	s.respawn()
	assert.True(t, victim.player.Active)
	assert.Equal(t, 1500.0, victim.player.Energy)
	assert.Equal(t, physics.V(14.5, 10.5), victim.player.Position)
	assert.Contains(t, s.Score(), "freq 0: 1 kills, 0 deaths")
}

func TestSafeZoneProtects(t *testing.T) {
	s := duel(t, 30.5)
	victim := s.pilots[1]
	victim.body.Position = physics.V(3.5, 15.5)

	s.projectiles = append(s.projectiles, projectile{freq: 0, pos: physics.V(3.5, 15.5), expires: 100})
	s.fly(0.01)
	assert.Equal(t, 1500.0, victim.player.Energy)
}

func TestBombsExplode(t *testing.T) {
	s := duel(t, 20.5)
	victim := s.pilots[1]

	s.projectiles = append(s.projectiles, projectile{freq: 0, pos: physics.V(19, 10.5), expires: 0.05, kind: world.WeaponBomb})
	s.fly(0.1)
	assert.Zero(t, s.Projectiles())
	assert.Less(t, victim.player.Energy, 1500.0)
}

func TestApplyMovesAndCollides(t *testing.T) {
	s := duel(t, 30.5)
	p := s.pilots[0]
	p.body.Position = physics.V(2, 10.5)
	p.body.Heading = 3 * math.Pi / 2
	p.body.Velocity = physics.V(-16, 0)

	s.apply(p, world.Intents{Keys: world.Keys(world.KeyUp)}, 0.1)
	assert.Equal(t, 2.0, p.player.Position.X)
	assert.Greater(t, p.player.Velocity.X, 0.0)

	p.body.Position = physics.V(10.5, 10.5)
	p.body.Velocity = physics.Vec2{}
	p.body.Heading = 0
	var keys world.Keys
	keys.Press(world.KeyRight)
	s.apply(p, world.Intents{Keys: keys}, 0.1)
	assert.InDelta(t, math.Pi/0.6*0.1, p.player.Heading, 1e-9)
}

func TestApplyRequests(t *testing.T) {
	s := duel(t, 30.5)
	p := s.pilots[0]
	p.player.Energy = 10

	var in world.Intents
	in.RequestShip(world.Leviathan)
	in.RequestFreq(4)
	s.apply(p, in, 0.1)

	assert.Equal(t, world.Leviathan, p.player.Ship)
	assert.Equal(t, world.Frequency(4), p.player.Frequency)
	assert.True(t, p.player.Energy >= 1500)
}

func TestRender(t *testing.T) {
	s := duel(t, 30.5)
	out := s.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 30)
	assert.Equal(t, byte('0'), lines[10][10])
	assert.Equal(t, byte('1'), lines[10][30])
	assert.Equal(t, byte('#'), lines[0][0])
	assert.Equal(t, byte('s'), lines[14][3])
}

func TestMinesAndRepel(t *testing.T) {
	s := duel(t, 30.5)
	layer, victim := s.pilots[0], s.pilots[1]
	limit := s.settings.Ship(world.Warbird).MaxMines

	var keys world.Keys
	keys.Press(world.KeyMine)
	for i := 0; i < limit+2; i++ {
		s.fire(layer, keys, s.settings.Ship(world.Warbird))
		s.now += s.settings.Ship(world.Warbird).BombFireDelay
	}
	require.Equal(t, limit, s.mines(layer.player.ID))

	weapons := s.Snapshots()["right"].EnemyWeapons()
	require.Len(t, weapons, limit)
	assert.True(t, weapons[0].IsMine())
	assert.True(t, weapons[0].Velocity.IsZero())
	assert.Empty(t, s.Snapshots()["left"].EnemyWeapons())

	// the victim repels the mines away and spends one repel
	victim.body.Position = physics.V(12.5, 10.5)
	require.Equal(t, 2, victim.player.Repels)
	s.repel(victim, world.Keys(world.KeyRepel))
	assert.Equal(t, 1, victim.player.Repels)
	for _, pr := range s.projectiles {
		assert.InDelta(t, s.settings.RepelSpeed, pr.vel.Length(), 1e-9)
		assert.Less(t, pr.vel.X, 0.0)
	}

	// repels are rate limited and run out
	s.repel(victim, world.Keys(world.KeyRepel))
	assert.Equal(t, 1, victim.player.Repels)
	s.now += repelDelay
	s.repel(victim, world.Keys(world.KeyRepel))
	s.now += repelDelay
	s.repel(victim, world.Keys(world.KeyRepel))
	assert.Zero(t, victim.player.Repels)

	s.reset(victim)
	assert.Equal(t, 2, victim.player.Repels)
}

func TestMineTriggersOnProximity(t *testing.T) {
	s := duel(t, 20.5)
	victim := s.pilots[1]

	s.projectiles = append(s.projectiles, projectile{freq: 0, pos: physics.V(19.5, 10.5), expires: 100, kind: world.WeaponMine})
	s.fly(0.01)
	assert.Zero(t, s.Projectiles())
	assert.Less(t, victim.player.Energy, 1500.0)

	// an expired mine disappears without a blast
	victim.player.Energy = 1500
	s.projectiles = append(s.projectiles, projectile{freq: 0, pos: physics.V(22.5, 10.5), expires: 0.005, kind: world.WeaponMine})
	s.fly(0.01)
	assert.Zero(t, s.Projectiles())
	assert.Equal(t, 1500.0, victim.player.Energy)
}
