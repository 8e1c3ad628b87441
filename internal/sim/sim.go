// Package sim is a small kinematic stand-in for the game server: it hands snapshots to the
// agents, applies their intents and resolves bullets, bombs and mines.
package sim

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zeusync/skirmish/internal/core/bot"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

//go:embed arena.txt
var arenaSrc string

// DefaultArena is a 40x30 open arena with a few pillars and a safe zone on each side.
func DefaultArena() *tilemap.Grid {
	g, err := tilemap.Parse(arenaSrc)
	if err != nil {
		panic(err)
	}
	return g
}

const (
	bulletDamage = 400.0
	bombDamage   = 1000.0
	// energy regained per second
	recharge     = 150.0
	respawnDelay = 3.0
	spawnSearch  = 8
	repelDelay   = 0.5
	// a mine goes off when an enemy hull comes this close
	mineTrigger = 1.0
)

type pilot struct {
	agent     string
	player    world.Player
	body      physics.Body
	spawn     physics.Vec2
	respawnAt float64
	nextGun   float64
	nextBomb  float64
	nextRepel float64
}

type projectile struct {
	owner   world.PlayerID
	freq    world.Frequency
	pos     physics.Vec2
	vel     physics.Vec2
	expires float64
	kind    world.WeaponKind
}

func (pr projectile) explodes() bool { return pr.kind != world.WeaponBullet }

// Sim owns the authoritative world state. It is driven from a single goroutine.
type Sim struct {
	m        tilemap.Map
	settings world.Settings
	manager  *bot.Manager
	logger   log.Log

	pilots      []*pilot
	projectiles []projectile
	tick        uint64
	now         float64

	kills  map[world.Frequency]int
	deaths map[world.Frequency]int
}

func New(m tilemap.Map, settings world.Settings, manager *bot.Manager, logger log.Log) *Sim {
	if logger == nil {
		logger = log.Provide()
	}
	return &Sim{
		m:        m,
		settings: settings,
		manager:  manager,
		logger:   logger.With(log.String("component", "sim")),
		kills:    make(map[world.Frequency]int),
		deaths:   make(map[world.Frequency]int),
	}
}

// Spawn registers b with the manager and places its ship near at, facing heading.
func (s *Sim) Spawn(b *bot.Bot, ship world.Ship, freq world.Frequency, at physics.Vec2, heading float64) (world.PlayerID, error) {
	radius := s.settings.Ship(ship).Radius
	pos, ok := s.findOpen(at, radius)
	if !ok {
		return world.NoPlayer, fmt.Errorf("sim: no room to spawn near %v", at)
	}
	if err := s.manager.Add(b); err != nil {
		return world.NoPlayer, err
	}

	id := world.PlayerID(len(s.pilots))
	p := &pilot{
		agent: b.ID(),
		spawn: pos,
		player: world.Player{
			ID:        id,
			Name:      b.Config().Name,
			Ship:      ship,
			Frequency: freq,
			Energy:    s.settings.Ship(ship).MaxEnergy,
			Repels:    s.settings.Ship(ship).InitialRepels,
			Active:    true,
		},
		body: physics.Body{Position: pos, Heading: heading},
	}
	p.sync()
	s.pilots = append(s.pilots, p)
	return id, nil
}

// findOpen returns the free tile center nearest at for a disc of radius.
func (s *Sim) findOpen(at physics.Vec2, radius float64) (physics.Vec2, bool) {
	if tilemap.CanOccupy(s.m, at, radius) {
		return at, true
	}
	ax, ay := at.Floor()
	best, bestDist := physics.Vec2{}, math.Inf(1)
	for y := ay - spawnSearch; y <= ay+spawnSearch; y++ {
		for x := ax - spawnSearch; x <= ax+spawnSearch; x++ {
			c := tilemap.TileCenter(x, y)
			if !tilemap.InBounds(s.m, x, y) || !tilemap.CanOccupy(s.m, c, radius) {
				continue
			}
			if d := c.DistanceTo(at); d < bestDist {
				best, bestDist = c, d
			}
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func (p *pilot) sync() {
	p.player.Position = p.body.Position
	p.player.Velocity = p.body.Velocity
	p.player.Heading = p.body.Heading
}

func (s *Sim) Tick() uint64     { return s.tick }
func (s *Sim) Time() float64    { return s.now }
func (s *Sim) Map() tilemap.Map { return s.m }
func (s *Sim) Projectiles() int { return len(s.projectiles) }

// Players returns a copy of every player.
func (s *Sim) Players() []world.Player {
	out := make([]world.Player, len(s.pilots))
	for i, p := range s.pilots {
		out[i] = p.player
	}
	return out
}

// Kills returns the kill count per frequency.
func (s *Sim) Kills() map[world.Frequency]int {
	out := make(map[world.Frequency]int, len(s.kills))
	for f, n := range s.kills {
		out[f] = n
	}
	return out
}

func (s *Sim) Deaths() map[world.Frequency]int {
	out := make(map[world.Frequency]int, len(s.deaths))
	for f, n := range s.deaths {
		out[f] = n
	}
	return out
}

// Snapshots builds the view of every agent for the current tick.
func (s *Sim) Snapshots() map[string]*world.Snapshot {
	players := s.Players()
	weapons := s.Weapons()
	snaps := make(map[string]*world.Snapshot, len(s.pilots))
	for _, p := range s.pilots {
		snaps[p.agent] = &world.Snapshot{
			Tick:     s.tick,
			Self:     p.player.ID,
			Players:  players,
			Weapons:  weapons,
			Map:      s.m,
			Settings: s.settings,
		}
	}
	return snaps
}

// Weapons returns every projectile and mine in flight.
func (s *Sim) Weapons() []world.Weapon {
	out := make([]world.Weapon, len(s.projectiles))
	for i, pr := range s.projectiles {
		out[i] = world.Weapon{
			Owner:     pr.owner,
			Kind:      pr.kind,
			Position:  pr.pos,
			Velocity:  pr.vel,
			Remaining: math.Max(0, pr.expires-s.now),
		}
	}
	return out
}

// Step runs one tick of dt seconds: agents decide, ships move, projectiles fly.
func (s *Sim) Step(ctx context.Context, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %v", dt)
	}
	intents, err := s.manager.Update(ctx, dt, s.Snapshots())
	if err != nil {
		return fmt.Errorf("sim: tick %d: %w", s.tick, err)
	}

	for _, p := range s.pilots {
		if in, ok := intents[p.agent]; ok {
			s.apply(p, in, dt)
		}
	}
	s.fly(dt)
	s.respawn()

	s.tick++
	s.now += dt
	return nil
}

func (s *Sim) apply(p *pilot, in world.Intents, dt float64) {
	if in.HasShipRequest && in.ShipRequest != p.player.Ship {
		p.player.Ship = in.ShipRequest
		s.reset(p)
		s.logger.Debug("ship changed", log.String("agent", p.agent), log.Uint16("ship", uint16(in.ShipRequest)))
	}
	if in.HasFreqRequest && in.FreqRequest != p.player.Frequency {
		p.player.Frequency = in.FreqRequest
		s.reset(p)
		s.logger.Debug("frequency changed", log.String("agent", p.agent), log.Uint16("freq", uint16(in.FreqRequest)))
	}
	if !p.player.Active || p.player.Ship == world.Spectator {
		return
	}
	ship := s.settings.Ship(p.player.Ship)

	turn := 0.0
	if ship.RotationTime > 0 {
		rate := math.Pi / ship.RotationTime
		if in.Keys.Pressed(world.KeyRight) {
			turn += rate
		}
		if in.Keys.Pressed(world.KeyLeft) {
			turn -= rate
		}
	}
	var thrust physics.Vec2
	heading := physics.Heading(p.body.Heading)
	if in.Keys.Pressed(world.KeyUp) {
		thrust = heading.Scale(ship.Thrust)
	} else if in.Keys.Pressed(world.KeyDown) {
		thrust = heading.Scale(-ship.Thrust)
	}

	prev := p.body.Position
	p.body.Integrate(thrust, turn, ship.MaxSpeed, dt)
	s.collide(p, prev, ship.Radius)

	p.player.Energy = math.Min(ship.MaxEnergy, p.player.Energy+recharge*dt)
	s.fire(p, in.Keys, ship)
	s.repel(p, in.Keys)
	p.sync()
}

// collide undoes movement into walls one axis at a time and bounces off them.
func (s *Sim) collide(p *pilot, prev physics.Vec2, radius float64) {
	next := p.body.Position
	if tilemap.CanOccupy(s.m, next, radius) {
		return
	}
	pos := prev
	vel := p.body.Velocity
	if tilemap.CanOccupy(s.m, physics.V(next.X, prev.Y), radius) {
		pos.X = next.X
	} else {
		vel.X = -vel.X * 0.5
	}
	if tilemap.CanOccupy(s.m, physics.V(pos.X, next.Y), radius) {
		pos.Y = next.Y
	} else {
		vel.Y = -vel.Y * 0.5
	}
	p.body.Position = pos
	p.body.Velocity = vel
}

func (s *Sim) fire(p *pilot, keys world.Keys, ship world.ShipSettings) {
	heading := physics.Heading(p.body.Heading)
	if keys.Pressed(world.KeyGun) && s.now >= p.nextGun {
		p.nextGun = s.now + ship.BulletFireDelay
		vel := p.body.Velocity.Add(heading.Scale(ship.BulletSpeed))
		if ship.DoubleBarrel {
			offset := heading.Perpendicular().Scale(ship.Radius * 0.8)
			s.launch(p, p.body.Position.Add(offset), vel, s.settings.BulletAliveTime, world.WeaponBullet)
			s.launch(p, p.body.Position.Sub(offset), vel, s.settings.BulletAliveTime, world.WeaponBullet)
		} else {
			s.launch(p, p.body.Position, vel, s.settings.BulletAliveTime, world.WeaponBullet)
		}
	}
	if keys.Pressed(world.KeyBomb) && s.now >= p.nextBomb {
		p.nextBomb = s.now + ship.BombFireDelay
		vel := p.body.Velocity.Add(heading.Scale(ship.BombSpeed))
		s.launch(p, p.body.Position, vel, s.settings.BombAliveTime, world.WeaponBomb)
	}
	// mines share the bomb delay
	if keys.Pressed(world.KeyMine) && s.now >= p.nextBomb && s.mines(p.player.ID) < ship.MaxMines {
		p.nextBomb = s.now + ship.BombFireDelay
		s.launch(p, p.body.Position, physics.Vec2{}, s.settings.MineAliveTime, world.WeaponMine)
	}
}

func (s *Sim) mines(owner world.PlayerID) int {
	n := 0
	for _, pr := range s.projectiles {
		if pr.owner == owner && pr.kind == world.WeaponMine {
			n++
		}
	}
	return n
}

// repel spends one repel to push every enemy weapon within RepelDistance straight away from p.
func (s *Sim) repel(p *pilot, keys world.Keys) {
	if !keys.Pressed(world.KeyRepel) || p.player.Repels <= 0 || s.now < p.nextRepel {
		return
	}
	p.player.Repels--
	p.nextRepel = s.now + repelDelay
	for i := range s.projectiles {
		pr := &s.projectiles[i]
		if pr.freq == p.player.Frequency {
			continue
		}
		away := pr.pos.Sub(p.body.Position)
		if away.Length() > s.settings.RepelDistance {
			continue
		}
		if away.IsZero() {
			away = physics.Heading(p.body.Heading)
		}
		pr.vel = away.Normalize().Scale(s.settings.RepelSpeed)
	}
	s.logger.Debug("repel", log.String("agent", p.agent), log.Uint64("tick", s.tick))
}

func (s *Sim) launch(p *pilot, pos, vel physics.Vec2, alive float64, kind world.WeaponKind) {
	s.projectiles = append(s.projectiles, projectile{
		owner:   p.player.ID,
		freq:    p.player.Frequency,
		pos:     pos,
		vel:     vel,
		expires: s.now + alive,
		kind:    kind,
	})
}

func (s *Sim) fly(dt float64) {
	kept := s.projectiles[:0]
	for _, pr := range s.projectiles {
		pr.pos = pr.pos.Add(pr.vel.Scale(dt))
		x, y := pr.pos.Floor()
		switch {
		case s.now+dt >= pr.expires:
			// mines time out quietly
			if pr.kind == world.WeaponBomb {
				s.explode(pr)
			}
			continue
		case tilemap.IsSolid(s.m, x, y):
			if pr.explodes() {
				s.explode(pr)
			}
			continue
		}
		if victim := s.hit(pr); victim != nil {
			if pr.explodes() {
				s.explode(pr)
			} else {
				s.damage(victim, pr, bulletDamage)
			}
			continue
		}
		kept = append(kept, pr)
	}
	s.projectiles = kept
}

func (s *Sim) hit(pr projectile) *pilot {
	for _, p := range s.pilots {
		if !p.player.Active || p.player.Frequency == pr.freq || p.player.Ship == world.Spectator {
			continue
		}
		if tilemap.IsSafe(s.m, p.body.Position) {
			continue
		}
		reach := s.settings.Ship(p.player.Ship).Radius
		if pr.kind == world.WeaponMine {
			reach += mineTrigger
		}
		if p.body.Position.DistanceTo(pr.pos) <= reach {
			return p
		}
	}
	return nil
}

func (s *Sim) explode(pr projectile) {
	for _, p := range s.pilots {
		if !p.player.Active || p.player.Frequency == pr.freq || p.player.Ship == world.Spectator {
			continue
		}
		if tilemap.IsSafe(s.m, p.body.Position) {
			continue
		}
		if d := p.body.Position.DistanceTo(pr.pos); d <= s.settings.BombExplodeRadius {
			s.damage(p, pr, bombDamage*(1-d/(2*s.settings.BombExplodeRadius)))
		}
	}
}

func (s *Sim) damage(p *pilot, pr projectile, amount float64) {
	p.player.Energy -= amount
	if p.player.Energy > 0 {
		return
	}
	p.player.Energy = 0
	p.player.Active = false
	p.respawnAt = s.now + respawnDelay
	s.kills[pr.freq]++
	s.deaths[p.player.Frequency]++
	s.logger.Info("kill",
		log.Uint16("killer", uint16(pr.owner)),
		log.Uint16("victim", uint16(p.player.ID)),
		log.Uint64("tick", s.tick),
	)
}

func (s *Sim) respawn() {
	for _, p := range s.pilots {
		if p.player.Active || p.player.Ship == world.Spectator || s.now < p.respawnAt {
			continue
		}
		s.reset(p)
	}
}

// reset puts p back at its spawn with full energy and repels.
func (s *Sim) reset(p *pilot) {
	ship := s.settings.Ship(p.player.Ship)
	pos, ok := s.findOpen(p.spawn, ship.Radius)
	if !ok {
		pos = p.spawn
	}
	p.body.Position = pos
	p.body.Velocity = physics.Vec2{}
	p.player.Energy = ship.MaxEnergy
	p.player.Repels = ship.InitialRepels
	p.player.Active = p.player.Ship != world.Spectator
	p.sync()
}

// Render draws the map with ships as their frequency digit, projectiles as '*' and mines as '+'.
func (s *Sim) Render() string {
	w, h := s.m.Width(), s.m.Height()
	rows := make([][]byte, h)
	for y := range rows {
		rows[y] = make([]byte, w)
		for x := range rows[y] {
			switch s.m.TileAt(x, y) {
			case tilemap.TileSolid:
				rows[y][x] = '#'
			case tilemap.TileSafe:
				rows[y][x] = 's'
			default:
				rows[y][x] = '.'
			}
		}
	}
	put := func(p physics.Vec2, c byte) {
		x, y := p.Floor()
		if tilemap.InBounds(s.m, x, y) {
			rows[y][x] = c
		}
	}
	for _, pr := range s.projectiles {
		if pr.kind == world.WeaponMine {
			put(pr.pos, '+')
		} else {
			put(pr.pos, '*')
		}
	}
	for _, p := range s.pilots {
		if p.player.Active {
			put(p.body.Position, byte('0'+p.player.Frequency%10))
		}
	}

	var sb strings.Builder
	for _, r := range rows {
		sb.Write(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Score formats the kill and death counts per frequency.
func (s *Sim) Score() string {
	freqs := make([]int, 0, len(s.pilots))
	seen := make(map[world.Frequency]bool)
	for _, p := range s.pilots {
		if !seen[p.player.Frequency] {
			seen[p.player.Frequency] = true
			freqs = append(freqs, int(p.player.Frequency))
		}
	}
	sort.Ints(freqs)
	parts := make([]string, 0, len(freqs))
	for _, f := range freqs {
		freq := world.Frequency(f)
		parts = append(parts, fmt.Sprintf("freq %d: %d kills, %d deaths", f, s.kills[freq], s.deaths[freq]))
	}
	return strings.Join(parts, "; ")
}
