package bot

import (
	"math"

	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/nav/search"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

// isValidTarget filters out teammates, spectators, the dead, players in safe zones and
// players the agent cannot reach. Cloaked players only count when the agent has xradar or
// is anchoring.
func (b *Bot) isValidTarget(snap *world.Snapshot, me, p world.Player, anchoring bool) bool {
	if p.ID == me.ID || !p.Active || p.Ship == world.Spectator || p.Frequency == me.Frequency {
		return false
	}
	if tilemap.IsSafe(snap.Map, p.Position) {
		return false
	}
	if !b.regions.IsConnected(me.Position, p.Position) {
		return false
	}
	if p.Status.Has(world.StatusCloak) && !me.Status.Has(world.StatusXRadar) && !anchoring {
		return false
	}
	return true
}

// findEnemyInCenter picks the enemy cheapest to engage, counting travel time and the time
// needed to turn toward it. The current target is kept unless a new one is more than
// stickiness times cheaper.
type findEnemyInCenter struct {
	b          *Bot
	stickiness float64
}

func (l findEnemyInCenter) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	if !bb.Bool(KeyInCenter, true) {
		return behavior.StatusFailure
	}

	snap := ctx.World
	me := snap.Me()
	ship := snap.MyShip()

	best := world.NoPlayer
	bestCost := math.Inf(1)
	for _, p := range snap.Players {
		if !l.b.isValidTarget(snap, me, p, false) {
			continue
		}
		if cost := targetCost(me, ship, p); cost < bestCost {
			best, bestCost = p.ID, cost
		}
	}
	if best == world.NoPlayer {
		bb.SetPlayer(KeyTarget, world.NoPlayer)
		return behavior.StatusFailure
	}

	current, ok := snap.Player(bb.Player(KeyTarget))
	if ok && current.ID != best && l.b.isValidTarget(snap, me, current, false) {
		if targetCost(me, ship, current) <= bestCost*l.stickiness {
			best = current.ID
		}
	}

	if prev := bb.Player(KeyTarget); prev != best {
		ctx.Log.Debug("target acquired", log.Uint16("target", uint16(best)))
	}
	bb.SetPlayer(KeyTarget, best)
	return behavior.StatusSuccess
}

func targetCost(me world.Player, ship world.ShipSettings, target world.Player) float64 {
	dist := me.Position.DistanceTo(target.Position)
	moveCost := dist / ship.MaxSpeed

	direction := target.Position.Sub(me.Position).Normalize()
	turn := math.Abs(me.Direction().Dot(direction)-1) / 2
	return moveCost + turn*ship.RotationTime
}

// findEnemyInBase targets the enemy whose bullets reach furthest past the agent along the
// base path.
type findEnemyInBase struct{ b *Bot }

func (l findEnemyInBase) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	if bb.Bool(KeyInCenter, false) {
		return behavior.StatusFailure
	}
	anchoring := bb.Bool(KeyIsAnchor, false)

	snap := ctx.World
	me := snap.Me()
	s, ok := l.b.baseSearch(me.Position, l.b.cfg.SearchWindow)
	if !ok {
		return behavior.StatusFailure
	}
	botNode := s.FindNearestNodeBFS(me.Position)

	const sightRadius = 0.8
	alive := snap.Settings.BulletAliveTime

	best := world.NoPlayer
	bestTravel := math.Inf(-1)
	for _, p := range snap.Enemies() {
		if !l.b.isValidTarget(snap, me, p, anchoring) {
			continue
		}
		node := s.FindNearestNodeBFS(p.Position)
		fore := s.FindForwardLOSNode(p.Position, node, sightRadius, search.HighSide(node, botNode))
		toBot := fore.Sub(p.Position).Normalize()
		if l.b.los.Clear(p.Position, me.Position, sightRadius) {
			toBot = me.Position.Sub(p.Position).Normalize()
		}

		speed := p.Velocity.Dot(toBot)
		travel := (speed + snap.Settings.Ship(p.Ship).BulletSpeed) * alive
		net := travel - s.GetPathDistance(node, botNode)
		if net > bestTravel {
			best, bestTravel = p.ID, net
		}
	}

	bb.SetPlayer(KeyTarget, best)
	if best == world.NoPlayer {
		bb.Delete(KeyEnemyNetBulletTravel)
		return behavior.StatusFailure
	}
	bb.SetFloat(KeyEnemyNetBulletTravel, bestTravel)
	return behavior.StatusSuccess
}

// shootEnemy aims every barrel and the bomb at the target's intercept point and presses
// the first weapon whose projectile would hit. Bombs are held while the target is inside
// the blast radius.
type shootEnemy struct{ b *Bot }

func (l shootEnemy) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	snap := ctx.World
	target, ok := snap.Player(bb.Player(KeyTarget))
	if !ok {
		return behavior.StatusFailure
	}
	me := snap.Me()
	ship := snap.MyShip()
	targetRadius := snap.Settings.Ship(target.Ship).Radius
	heading := me.Direction()
	side := heading.Perpendicular()

	bb.SetVec2(KeySolution, target.Position)

	type barrel struct {
		origin physics.Vec2
		bomb   bool
	}
	var barrels []barrel
	if ship.DoubleBarrel {
		offset := side.Scale(ship.Radius * 0.8)
		barrels = append(barrels, barrel{origin: me.Position.Add(offset)}, barrel{origin: me.Position.Sub(offset)})
	} else {
		barrels = append(barrels, barrel{origin: me.Position})
	}
	barrels = append(barrels, barrel{origin: me.Position, bomb: true})

	safeBombDistance := snap.Settings.BombExplodeRadius*float64(ship.MaxBombs) + targetRadius
	skipBomb := false

	for _, br := range barrels {
		key := world.KeyGun
		speed := ship.BulletSpeed
		alive := snap.Settings.BulletAliveTime
		radiusMultiplier := 1.4
		if br.bomb {
			if skipBomb || me.Position.DistanceTo(target.Position) < safeBombDistance {
				continue
			}
			key = world.KeyBomb
			speed = ship.BombSpeed
			alive = snap.Settings.BombAliveTime
			radiusMultiplier = 1
		}

		velocity := me.Velocity.Add(heading.Scale(speed))
		shot := CalculateShot(br.origin, target.Position, me.Velocity, target.Velocity, velocity.Length())
		if !shot.Hit {
			continue
		}
		if !br.bomb {
			bb.SetVec2(KeySolution, shot.Solution)
		}
		if !canShoot(me.Position, target.Position, velocity, alive) {
			continue
		}
		if !br.bomb && ship.DoubleBarrel {
			skipBomb = true
		}
		if target.Status.Has(world.StatusCloak) && !me.Status.Has(world.StatusXRadar) {
			radiusMultiplier = 3
		}

		if _, hit := RayBoxIntersect(br.origin, velocity.Normalize(), shot.Solution, targetRadius*radiusMultiplier); hit {
			l.b.keys.Press(key)
			return behavior.StatusSuccess
		}
	}
	return behavior.StatusFailure
}
