// Package path finds weighted routes over the occupancy grid of a tile map and keeps the
// route an agent is currently following.
package path

import (
	"container/heap"
	"math"
	"sync/atomic"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
)

// Path is an ordered waypoint list; index 0 is the next waypoint.
type Path []physics.Vec2

func (p Path) Empty() bool { return len(p) == 0 }

// Length is the polyline length from origin through every waypoint.
func (p Path) Length(origin physics.Vec2) float64 {
	total := 0.0
	prev := origin
	for _, q := range p {
		total += prev.DistanceTo(q)
		prev = q
	}
	return total
}

// Route is the detailed result of a search.
type Route struct {
	Points Path
	// Cost is the weighted cost of the unsmoothed node chain.
	Cost     float64
	Expanded int
	// Exhausted is set when the expansion budget ran out before the goal was reached.
	Exhausted bool
}

type Config struct {
	// AvoidRadius and AvoidPenalty inflate the cost of tiles near avoid points.
	AvoidRadius  float64 `mapstructure:"avoid_radius" yaml:"avoid_radius"`
	AvoidPenalty float64 `mapstructure:"avoid_penalty" yaml:"avoid_penalty"`
	// WallReach and WallPenalty shape the map weights built by CreateMapWeights.
	WallReach   int     `mapstructure:"wall_reach" yaml:"wall_reach"`
	WallPenalty float64 `mapstructure:"wall_penalty" yaml:"wall_penalty"`
	// MaxExpansions bounds the number of nodes popped per search.
	MaxExpansions int `mapstructure:"max_expansions" yaml:"max_expansions"`
	// SnapRadius is how far, in tiles, the endpoints may be moved onto a pathable tile.
	SnapRadius int  `mapstructure:"snap_radius" yaml:"snap_radius"`
	Smooth     bool `mapstructure:"smooth" yaml:"smooth"`
}

func DefaultConfig() Config {
	return Config{
		AvoidRadius:   5,
		AvoidPenalty:  10,
		WallReach:     2,
		WallPenalty:   2,
		MaxExpansions: 60000,
		SnapRadius:    6,
		Smooth:        true,
	}
}

// Pathfinder is owned by a single agent. The graph and weights may be replaced while other
// goroutines search; the current path may not.
type Pathfinder struct {
	cfg     Config
	graph   atomic.Pointer[graph]
	weights atomic.Pointer[weights]
	path    Path
}

func New(cfg Config) *Pathfinder {
	if cfg.MaxExpansions <= 0 {
		cfg.MaxExpansions = DefaultConfig().MaxExpansions
	}
	if cfg.SnapRadius < 0 {
		cfg.SnapRadius = 0
	}
	return &Pathfinder{cfg: cfg}
}

func (pf *Pathfinder) Config() Config { return pf.cfg }

// CreateMapWeights computes wall-proximity weights for m.
func (pf *Pathfinder) CreateMapWeights(m tilemap.Map) {
	pf.weights.Store(buildWeights(m, pf.cfg.WallReach, pf.cfg.WallPenalty))
}

// SetPathableNodes rebuilds the occupancy mask used by CreatePath and FindPath for radius.
func (pf *Pathfinder) SetPathableNodes(m tilemap.Map, radius float64) {
	pf.graph.Store(buildGraph(m, radius))
}

// Radius is the disc radius of the current occupancy mask, or -1 when none is set.
func (pf *Pathfinder) Radius() float64 {
	if g := pf.graph.Load(); g != nil {
		return g.radius
	}
	return -1
}

func (pf *Pathfinder) Path() Path     { return pf.path }
func (pf *Pathfinder) SetPath(p Path) { pf.path = p }

// CreatePath searches on the map given to SetPathableNodes and stores the result as the
// current path.
func (pf *Pathfinder) CreatePath(start, goal physics.Vec2, radius float64, avoid ...physics.Vec2) Path {
	g := pf.graph.Load()
	if g == nil {
		pf.path = nil
		return nil
	}
	pf.path = pf.FindPath(g.m, avoid, start, goal, radius)
	return pf.path
}

// FindPath returns the smoothed route from start to goal, or an empty path when the goal is
// unreachable or the expansion budget runs out.
func (pf *Pathfinder) FindPath(m tilemap.Map, avoid []physics.Vec2, start, goal physics.Vec2, radius float64) Path {
	return pf.FindRoute(m, avoid, start, goal, radius).Points
}

func (pf *Pathfinder) FindRoute(m tilemap.Map, avoid []physics.Vec2, start, goal physics.Vec2, radius float64) Route {
	w, h := m.Width(), m.Height()
	if w == 0 || h == 0 {
		return Route{}
	}
	pathable := pf.pathableFunc(m, radius)
	ws := pf.weights.Load()
	if ws != nil && (ws.w != w || ws.h != h) {
		ws = nil
	}

	sx, sy, ok := pf.snap(start, w, h, pathable)
	if !ok {
		return Route{}
	}
	gx, gy, ok := pf.snap(goal, w, h, pathable)
	if !ok {
		return Route{}
	}
	startIdx, goalIdx := sy*w+sx, gy*w+gx

	goalPoint := tilemap.TileCenter(gx, gy)
	if tx, ty := goal.Floor(); tx == gx && ty == gy {
		goalPoint = goal
	}
	if startIdx == goalIdx {
		return Route{Points: Path{goalPoint}}
	}

	n := w * h
	gScore := make([]float64, n)
	parent := make([]int32, n)
	closed := make([]bool, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
		parent[i] = -1
	}
	gScore[startIdx] = 0

	open := &openList{}
	heap.Push(open, &openNode{idx: startIdx, g: 0, f: octile(sx, sy, gx, gy)})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*openNode)
		if closed[cur.idx] || cur.g > gScore[cur.idx] {
			continue
		}
		if cur.idx == goalIdx {
			points := pf.finish(m, trace(parent, goalIdx, w), start, goalPoint, radius)
			return Route{Points: points, Cost: gScore[goalIdx], Expanded: expanded}
		}
		if expanded >= pf.cfg.MaxExpansions {
			return Route{Expanded: expanded, Exhausted: true}
		}
		expanded++
		closed[cur.idx] = true

		cx, cy := cur.idx%w, cur.idx/w
		for _, st := range steps {
			nx, ny := cx+st.dx, cy+st.dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if closed[ni] || !pathable(ni) {
				continue
			}
			// no corner cutting
			if st.dx != 0 && st.dy != 0 && (!pathable(cy*w+nx) || !pathable(ny*w+cx)) {
				continue
			}
			cost := st.cost * ws.at(ni) * avoidFactor(tilemap.TileCenter(nx, ny), avoid, pf.cfg.AvoidRadius, pf.cfg.AvoidPenalty)
			ng := cur.g + cost
			if ng < gScore[ni] {
				gScore[ni] = ng
				parent[ni] = int32(cur.idx)
				heap.Push(open, &openNode{idx: ni, g: ng, f: ng + octile(nx, ny, gx, gy)})
			}
		}
	}
	return Route{Expanded: expanded}
}

func (pf *Pathfinder) pathableFunc(m tilemap.Map, radius float64) func(int) bool {
	if g := pf.graph.Load(); g.matches(m, radius) {
		return func(i int) bool { return g.pathable[i] }
	}
	w := m.Width()
	memo := make([]int8, w*m.Height())
	return func(i int) bool {
		if memo[i] == 0 {
			memo[i] = -1
			if tilemap.CanOccupy(m, tilemap.TileCenter(i%w, i/w), radius) {
				memo[i] = 1
			}
		}
		return memo[i] == 1
	}
}

// snap returns the pathable tile nearest p within the snap radius.
func (pf *Pathfinder) snap(p physics.Vec2, w, h int, pathable func(int) bool) (int, int, bool) {
	px, py := p.Floor()
	if px >= 0 && py >= 0 && px < w && py < h && pathable(py*w+px) {
		return px, py, true
	}
	bestX, bestY, best := 0, 0, math.Inf(1)
	for ring := 1; ring <= pf.cfg.SnapRadius; ring++ {
		for y := py - ring; y <= py+ring; y++ {
			for x := px - ring; x <= px+ring; x++ {
				if x != px-ring && x != px+ring && y != py-ring && y != py+ring {
					continue
				}
				if x < 0 || y < 0 || x >= w || y >= h || !pathable(y*w+x) {
					continue
				}
				if d := tilemap.TileCenter(x, y).Sub(p).LengthSq(); d < best {
					bestX, bestY, best = x, y, d
				}
			}
		}
		if !math.IsInf(best, 1) {
			return bestX, bestY, true
		}
	}
	return 0, 0, false
}

func trace(parent []int32, goal, w int) []physics.Vec2 {
	var rev []physics.Vec2
	for i := goal; parent[i] >= 0; i = int(parent[i]) {
		rev = append(rev, tilemap.TileCenter(i%w, i/w))
	}
	out := make([]physics.Vec2, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// finish replaces the last node with the exact goal and drops waypoints the agent can skip.
func (pf *Pathfinder) finish(m tilemap.Map, nodes []physics.Vec2, start, goal physics.Vec2, radius float64) Path {
	if len(nodes) == 0 {
		return Path{goal}
	}
	nodes[len(nodes)-1] = goal
	if !pf.cfg.Smooth {
		return nodes
	}
	return Smooth(tilemap.NewSweep(m), start, nodes, radius)
}

// Smooth greedily keeps, from each anchor, the furthest waypoint visible to a disc of
// radius. The last waypoint is always kept.
func Smooth(los tilemap.LineOfSight, origin physics.Vec2, points []physics.Vec2, radius float64) Path {
	if len(points) <= 1 {
		return append(Path(nil), points...)
	}
	out := make(Path, 0, len(points))
	anchor := origin
	i := 0
	for i < len(points) {
		next := i
		for j := len(points) - 1; j > i; j-- {
			if los.Clear(anchor, points[j], radius) {
				next = j
				break
			}
		}
		out = append(out, points[next])
		anchor = points[next]
		i = next + 1
	}
	return out
}

type openNode struct {
	idx   int
	g, f  float64
	index int
}

// openList orders by f, then by lower g, then by node index so equal-cost searches are
// deterministic.
type openList []*openNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	a, b := ol[i], ol[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.g != b.g {
		return a.g < b.g
	}
	return a.idx < b.idx
}
func (ol openList) Swap(i, j int)       { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) { n := x.(*openNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}
