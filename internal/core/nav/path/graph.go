package path

import (
	"math"
	"reflect"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
)

// graph is the occupancy mask of a map for one disc radius.
type graph struct {
	m        tilemap.Map
	w, h     int
	radius   float64
	pathable []bool

	// set only for maps whose dynamic type cannot be compared with ==
	fingerprint uint64
}

func buildGraph(m tilemap.Map, radius float64) *graph {
	w, h := m.Width(), m.Height()
	g := &graph{m: m, w: w, h: h, radius: radius, pathable: make([]bool, w*h)}
	for i := range g.pathable {
		g.pathable[i] = tilemap.CanOccupy(m, tilemap.TileCenter(i%w, i/w), radius)
	}
	if !comparableMap(m) {
		g.fingerprint = tilemap.Fingerprint(m)
	}
	return g
}

func (g *graph) matches(m tilemap.Map, radius float64) bool {
	if g == nil || g.radius != radius || g.w != m.Width() || g.h != m.Height() {
		return false
	}
	if comparableMap(g.m) && comparableMap(m) {
		return g.m == m
	}
	return !comparableMap(m) && g.fingerprint == tilemap.Fingerprint(m)
}

func comparableMap(m tilemap.Map) bool {
	return m != nil && reflect.TypeOf(m).Comparable()
}

// weights holds a per-tile traversal multiplier, always >= 1.
type weights struct {
	w, h   int
	values []float64
}

func (ws *weights) at(i int) float64 {
	if ws == nil || i >= len(ws.values) {
		return 1
	}
	return ws.values[i]
}

func buildWeights(m tilemap.Map, reach int, penalty float64) *weights {
	w, h := m.Width(), m.Height()
	ws := &weights{w: w, h: h, values: make([]float64, w*h)}
	area := float64((2*reach+1)*(2*reach+1) - 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 1.0
			if reach > 0 && penalty > 0 && !tilemap.IsSolid(m, x, y) {
				solid := 0
				for dy := -reach; dy <= reach; dy++ {
					for dx := -reach; dx <= reach; dx++ {
						if (dx != 0 || dy != 0) && tilemap.IsSolid(m, x+dx, y+dy) {
							solid++
						}
					}
				}
				v += penalty * float64(solid) / area
			}
			ws.values[y*w+x] = v
		}
	}
	return ws
}

type step struct {
	dx, dy int
	cost   float64
}

var steps = [8]step{
	{1, 0, 1}, {-1, 0, 1}, {0, 1, 1}, {0, -1, 1},
	{1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
}

// octile is the exact shortest step distance on an unobstructed 8-connected grid.
func octile(ax, ay, bx, by int) float64 {
	dx := math.Abs(float64(ax - bx))
	dy := math.Abs(float64(ay - by))
	return math.Max(dx, dy) + (math.Sqrt2-1)*math.Min(dx, dy)
}

func avoidFactor(p physics.Vec2, avoid []physics.Vec2, radius, penalty float64) float64 {
	if radius <= 0 || penalty <= 0 {
		return 1
	}
	f := 1.0
	r2 := radius * radius
	for _, a := range avoid {
		d2 := p.Sub(a).LengthSq()
		if d2 < r2 {
			f += penalty * (1 - math.Sqrt(d2)/radius)
		}
	}
	return f
}
