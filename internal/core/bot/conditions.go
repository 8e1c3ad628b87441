package bot

import (
	"time"

	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

const (
	shipCooldown          = 200 * time.Millisecond
	spectatorShipCooldown = time.Second
	freqCooldown          = 200 * time.Millisecond
)

// respawnCheck fails while the agent is dead.
type respawnCheck struct{}

func (respawnCheck) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	if !ctx.World.Me().Active {
		return behavior.StatusFailure
	}
	return behavior.StatusSuccess
}

// shipCheck fails while the agent spectates.
type shipCheck struct{}

func (shipCheck) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	if ctx.World.Me().Ship == world.Spectator {
		return behavior.StatusFailure
	}
	return behavior.StatusSuccess
}

// setShip requests the ship stored under KeyShip and fails until the agent flies it.
type setShip struct{ b *Bot }

func (l setShip) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	me := ctx.World.Me()
	want := world.Ship(ctx.Blackboard.Int(KeyShip, int(world.Warbird)))
	if me.Ship == want {
		return behavior.StatusSuccess
	}

	cooldown := shipCooldown
	if me.Ship == world.Spectator {
		cooldown = spectatorShipCooldown
	}
	if l.b.clock.TimedActionDelay("shipchange", cooldown) {
		l.b.intents.RequestShip(want)
		ctx.Log.Debug("ship change requested", log.Uint16("from", uint16(me.Ship)), log.Uint16("to", uint16(want)))
	}
	return behavior.StatusFailure
}

// setFreq requests the frequency stored under KeyFreq. The key is cleared once the agent is
// on that frequency.
type setFreq struct{ b *Bot }

func (l setFreq) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	freq := world.Frequency(ctx.Blackboard.Int(KeyFreq, int(world.NoFrequency)))
	if freq == world.NoFrequency {
		return behavior.StatusSuccess
	}
	if ctx.World.Me().Frequency == freq {
		ctx.Blackboard.SetInt(KeyFreq, int(world.NoFrequency))
		return behavior.StatusSuccess
	}
	if l.b.clock.TimedActionDelay("setfreq", freqCooldown) {
		l.b.intents.RequestFreq(freq)
		ctx.Log.Debug("frequency change requested", log.Uint16("to", uint16(freq)))
	}
	return behavior.StatusFailure
}

// sortBaseTeams counts the two public teams and records which of them have players
// outside the center region.
type sortBaseTeams struct{ b *Bot }

func (l sortBaseTeams) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	snap := ctx.World
	me := snap.Me()

	pub0 := world.Frequency(bb.Int(KeyPubTeam0, 0))
	pub1 := world.Frequency(bb.Int(KeyPubTeam1, 1))

	teamInBase, enemyInBase, lastInBase := false, false, true
	teamCount, enemyCount := 0, 0

	for _, p := range snap.Players {
		if p.ID == me.ID || p.Ship == world.Spectator {
			continue
		}
		if p.Frequency != pub0 && p.Frequency != pub1 {
			continue
		}
		inCenter := l.b.regions.IsConnected(p.Position, l.b.center)
		valid := validPosition(snap.Map, p)

		if p.Frequency == me.Frequency {
			teamCount++
			if !inCenter && valid {
				teamInBase = true
			}
			if !inCenter && p.Active {
				lastInBase = false
			}
		} else {
			enemyCount++
			if !inCenter && valid {
				enemyInBase = true
			}
		}
	}
	if teamCount == 0 {
		lastInBase = false
	}

	bb.SetBool(KeyTeamInBase, teamInBase)
	bb.SetBool(KeyEnemyInBase, enemyInBase)
	bb.SetBool(KeyLastInBase, lastInBase)
	bb.SetInt(KeyTeamCount, teamCount)
	bb.SetInt(KeyEnemyCount, enemyCount)
	return behavior.StatusSuccess
}

func validPosition(m tilemap.Map, p world.Player) bool {
	if p.Position.IsZero() {
		return false
	}
	x, y := p.Position.Floor()
	return tilemap.InBounds(m, x, y)
}

// inLineOfSight records whether the agent can see the edge of its target's ship.
type inLineOfSight struct{ b *Bot }

func (l inLineOfSight) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	snap := ctx.World
	me := snap.Me()
	target, ok := snap.Player(ctx.Blackboard.Player(KeyTarget))
	if ok {
		edge := snap.Settings.Ship(target.Ship).Radius
		front := target.Position.Add(me.Position.Sub(target.Position).Normalize().Scale(edge))
		if l.b.los.Clear(me.Position, front, snap.MyShip().Radius) {
			ctx.Blackboard.SetBool(KeyTargetInSight, true)
			return behavior.StatusSuccess
		}
	}
	ctx.Blackboard.SetBool(KeyTargetInSight, false)
	return behavior.StatusFailure
}

type isAnchor struct{}

func (isAnchor) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	if bb.Bool(KeyIsAnchor, false) && !bb.Bool(KeyInCenter, true) {
		return behavior.StatusSuccess
	}
	return behavior.StatusFailure
}

// idle brakes in place.
type idle struct{ b *Bot }

func (l idle) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	l.b.steering.Arrive(ctx.World.Me().Position, 1)
	return behavior.StatusSuccess
}
