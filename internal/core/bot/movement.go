package bot

import (
	"math"

	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/nav/path"
	"github.com/zeusync/skirmish/internal/core/nav/search"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

const (
	patrolReach   = 5.0
	waypointReach = 2.0
)

// pathToEnemy plans a route to the target. It fails when the target is gone or unreachable.
type pathToEnemy struct{ b *Bot }

func (l pathToEnemy) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	snap := ctx.World
	target, ok := snap.Player(ctx.Blackboard.Player(KeyTarget))
	if !ok {
		return behavior.StatusFailure
	}
	me := snap.Me()
	if l.b.pathfinder.CreatePath(me.Position, target.Position, snap.MyShip().Radius, l.b.avoidPoints(me.Position)...).Empty() {
		return behavior.StatusFailure
	}
	return behavior.StatusSuccess
}

// patrol cycles through the patrol nodes while the agent is in center.
type patrol struct{ b *Bot }

func (l patrol) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	nodes := bb.Path(KeyPatrolNodes)
	if len(nodes) == 0 || !bb.Bool(KeyInCenter, true) {
		return behavior.StatusFailure
	}
	me := ctx.World.Me()

	index := bb.Int(KeyPatrolIndex, 0) % len(nodes)
	if index < 0 {
		index = 0
	}
	if me.Position.DistanceTo(nodes[index]) < patrolReach {
		index = (index + 1) % len(nodes)
	}
	bb.SetInt(KeyPatrolIndex, index)

	l.b.pathfinder.CreatePath(me.Position, nodes[index], ctx.World.MyShip().Radius, l.b.avoidPoints(me.Position)...)
	return behavior.StatusSuccess
}

// rusherBasePath pushes toward the target along the base path, stopping at the furthest
// node still in sight.
type rusherBasePath struct{ b *Bot }

func (l rusherBasePath) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	snap := ctx.World
	target, ok := snap.Player(bb.Player(KeyTarget))
	if !ok || bb.Bool(KeyInCenter, true) || bb.Bool(KeyIsAnchor, false) || bb.Bool(KeyLastInBase, false) {
		return behavior.StatusFailure
	}

	me := snap.Me()
	radius := snap.MyShip().Radius
	s, ok := l.b.baseSearch(me.Position, l.b.cfg.RusherWindow)
	if !ok {
		return behavior.StatusFailure
	}
	botNode := s.FindNearestNodeBFS(me.Position)
	enemyNode := s.FindNearestNodeBFS(target.Position)

	desired := s.FindForwardLOSNode(me.Position, botNode, radius, search.HighSide(botNode, enemyNode))
	l.b.pathfinder.CreatePath(me.Position, desired, radius)
	return behavior.StatusSuccess
}

// anchorBasePath holds the agent just outside the enemy's reach along the base path. The
// desired distance grows with enemy bullet travel, braking distance and lost energy, and
// shrinks when the agent's team outweighs the enemy near the target. Inside that distance,
// or while enemy fire is heading through its footprint, the agent backs off toward the rear
// node while still facing the enemy.
type anchorBasePath struct{ b *Bot }

type anchorState struct {
	search    *search.Search
	botNode   int
	enemyNode int
	// towardEnemy is the index direction from the agent to the target.
	towardEnemy bool
	alive       float64

	maxEnemySpeed  float64
	maxEnemyTravel float64
	maxNetTravel   float64
	minTimeToBot   float64
	enemyThreat    float64
	teamThreat     float64
}

func (l anchorBasePath) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	snap := ctx.World
	target, ok := snap.Player(bb.Player(KeyTarget))
	anchoring := bb.Bool(KeyIsAnchor, false)
	if !ok || bb.Bool(KeyInCenter, true) || (!anchoring && !bb.Bool(KeyLastInBase, false)) {
		return behavior.StatusFailure
	}

	me := snap.Me()
	ship := snap.MyShip()
	s, ok := l.b.baseSearch(me.Position, l.b.cfg.SearchWindow)
	if !ok {
		return behavior.StatusFailure
	}

	st := &anchorState{search: s, alive: snap.Settings.BulletAliveTime}
	st.botNode = s.FindNearestNodeBFS(me.Position)
	st.enemyNode = s.FindNearestNodeBFS(target.Position)
	st.towardEnemy = search.HighSide(st.botNode, st.enemyNode)

	enemyShip := snap.Settings.Ship(target.Ship)
	enemyFore := s.FindForwardLOSNode(target.Position, st.enemyNode, enemyShip.Radius, !st.towardEnemy)
	botFore := s.FindForwardLOSNode(me.Position, st.botNode, ship.Radius, st.towardEnemy)
	botAft := s.FindRearLOSNode(me.Position, st.botNode, ship.Radius, st.towardEnemy)

	enemyToBot := enemyFore.Sub(target.Position).Normalize()
	botToEnemy := botFore.Sub(me.Position).Normalize()

	st.maxEnemySpeed = target.Velocity.Dot(enemyToBot)
	st.maxEnemyTravel = (st.maxEnemySpeed + enemyShip.BulletSpeed) * st.alive
	st.maxNetTravel = bb.Float(KeyEnemyNetBulletTravel, 0)
	st.minTimeToBot = timeToCover(s.GetPathDistance(st.enemyNode, st.botNode), st.maxEnemySpeed)

	l.enemyThreat(snap, me, anchoring, st)
	l.teamThreat(snap, me, st)

	botSpeed := me.Velocity.Dot(botToEnemy)
	closing := st.maxEnemySpeed + botSpeed
	brakingDistance := 0.0
	if ship.Thrust > 0 {
		brakingDistance = closing / 2 * math.Abs(closing) / ship.Thrust
	}
	energyModifier := 0.0
	if ship.MaxEnergy > 0 {
		energyModifier = 10 * (1 - me.Energy/ship.MaxEnergy)
	}

	desiredDistance := st.maxEnemyTravel + brakingDistance + energyModifier
	if total := st.teamThreat + st.enemyThreat; total > 0 {
		desiredDistance += desiredDistance * 0.5 * (0.5 - st.teamThreat/total)
	}

	desired := botFore
	if s.GetPathDistance(st.botNode, st.enemyNode) < desiredDistance || l.b.avoidInfluence(me.Position, ship.Radius) {
		desired = botAft
		bb.SetBool(KeySteerBackwards, true)
	}

	l.b.pathfinder.CreatePath(me.Position, desired, ship.Radius)
	return behavior.StatusSuccess
}

// enemyThreat sums the energy of enemies on the target's side that can reach the target's
// position with their bullets, and tracks the fastest and furthest reaching of them.
func (l anchorBasePath) enemyThreat(snap *world.Snapshot, me world.Player, anchoring bool, st *anchorState) {
	s := st.search
	for _, p := range snap.Enemies() {
		if !l.b.isValidTarget(snap, me, p, anchoring) {
			continue
		}
		node := s.FindNearestNodeBFS(p.Position)
		if search.HighSide(st.botNode, node) != st.towardEnemy {
			continue
		}
		ship := snap.Settings.Ship(p.Ship)

		fore := s.FindForwardLOSNode(p.Position, node, ship.Radius, search.HighSide(node, st.botNode))
		speed := p.Velocity.Dot(fore.Sub(p.Position).Normalize())

		toBot := s.GetPathDistance(st.botNode, node)
		toEnemy := s.GetPathDistance(st.enemyNode, node)
		travel := (speed + ship.BulletSpeed) * st.alive

		st.enemyThreat += threat(p, travel, toEnemy)
		if net := travel - toBot; net > st.maxNetTravel {
			st.maxEnemyTravel = travel
			st.maxNetTravel = net
		}
		if t := timeToCover(toBot, speed); t < st.minTimeToBot {
			st.minTimeToBot = t
			st.maxEnemySpeed = speed
		}
	}
}

// teamThreat sums the energy of active teammates in the agent's region that can reach the
// target with their bullets.
func (l anchorBasePath) teamThreat(snap *world.Snapshot, me world.Player, st *anchorState) {
	s := st.search
	for _, p := range snap.Team() {
		if !p.Active || !l.b.regions.IsConnected(p.Position, me.Position) {
			continue
		}
		ship := snap.Settings.Ship(p.Ship)
		node := s.FindNearestNodeBFS(p.Position)

		fore := s.FindForwardLOSNode(p.Position, node, ship.Radius, search.HighSide(node, st.enemyNode))
		speed := p.Velocity.Dot(fore.Sub(p.Position).Normalize())
		travel := (speed + ship.BulletSpeed) * st.alive

		st.teamThreat += threat(p, travel, s.GetPathDistance(st.enemyNode, node))
	}
}

// threat scales a player's energy by how far past distance its bullets travel.
func threat(p world.Player, travel, distance float64) float64 {
	if !p.Active || travel <= 0 {
		return 0
	}
	if reach := travel - distance; reach > 0 {
		return p.Energy * reach / travel
	}
	return 0
}

func timeToCover(distance, speed float64) float64 {
	if speed <= 0 {
		return math.Inf(1)
	}
	return distance / speed
}

// followPath steers toward the next waypoint of the current path, dropping waypoints that
// are reached or can be skipped because a later one is in sight.
type followPath struct{ b *Bot }

func (l followPath) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	pf := l.b.pathfinder
	current := pf.Path()
	if current.Empty() {
		return behavior.StatusSuccess
	}

	me := ctx.World.Me()
	radius := ctx.World.MyShip().Radius
	p := append(path.Path(nil), current...)
	next := p[0]

	mx, my := me.Position.Floor()
	if nx, ny := p[0].Floor(); mx == nx && my == ny {
		p = p[1:]
		if len(p) > 0 {
			next = p[0]
		}
	}
	for len(p) > 1 && l.b.los.Clear(me.Position, p[1], radius) {
		p = p[1:]
		next = p[0]
	}
	if len(p) == 1 && me.Position.DistanceTo(p[0]) < waypointReach {
		p = nil
	}

	if len(p) != len(current) {
		pf.SetPath(p)
	}
	l.b.Move(next, 0)
	return behavior.StatusSuccess
}

// moveToEnemy hovers around the firing solution and faces it. There is no hover inside a
// safe zone.
type moveToEnemy struct {
	b     *Bot
	hover float64
}

func (l moveToEnemy) Execute(ctx *behavior.ExecuteContext) behavior.Status {
	bb := ctx.Blackboard
	if !bb.Has(KeySolution) {
		return behavior.StatusFailure
	}
	me := ctx.World.Me()
	solution := bb.Vec2(KeySolution, physics.Vec2{})

	hover := l.hover
	if tilemap.IsSafe(ctx.World.Map, me.Position) {
		hover = 0
	}
	l.b.Move(solution, hover)
	l.b.steering.Face(solution)
	return behavior.StatusSuccess
}
