package bot

import (
	"math"

	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

const (
	mineSweepDistance = 8.0
	// avoidRadius bounds the influence hotspots handed to the pathfinder.
	avoidRadius = 12.0
	avoidLimit  = 16
)

// mineSweeper repels when an enemy mine lies within mineSweepDistance and a repel is left.
type mineSweeper struct{ b *Bot }

func (l mineSweeper) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	me := ctx.World.Me()
	if me.Repels <= 0 {
		return behavior.StatusFailure
	}
	for _, w := range ctx.World.EnemyWeapons() {
		if w.IsMine() && w.Position.DistanceTo(me.Position) <= mineSweepDistance {
			l.b.keys.Press(world.KeyRepel)
			return behavior.StatusSuccess
		}
	}
	return behavior.StatusFailure
}

// castWeaponInfluence decays the influence around the agent and marks the flight of every
// enemy weapon. Decay runs faster the healthier the agent is.
type castWeaponInfluence struct{ b *Bot }

func (l castWeaponInfluence) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	snap := ctx.World
	me := snap.Me()
	ship := snap.MyShip()

	multiplier := 1.0
	if ship.MaxEnergy > 0 {
		multiplier = math.Max(1, 5*me.Energy/ship.MaxEnergy)
	}
	l.b.influence.Decay(me.Position, ship.MaxSpeed, ctx.DT, multiplier)
	l.b.influence.CastWeapons(snap)
	return behavior.StatusSuccess
}

// avoidPoints are the influence hotspots around pos the pathfinder should steer clear of.
func (b *Bot) avoidPoints(pos physics.Vec2) []physics.Vec2 {
	if b.influence == nil {
		return nil
	}
	return b.influence.Hotspots(pos, avoidRadius, avoidLimit)
}

// avoidInfluence reports whether the ship's footprint at pos touches influence.
func (b *Bot) avoidInfluence(pos physics.Vec2, radius float64) bool {
	return b.influence != nil && b.influence.Touching(pos, radius)
}
