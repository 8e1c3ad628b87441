package tilemap

import (
	"math"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
)

// LineOfSight answers whether a disc can sweep from one point to another without touching
// a solid tile. A zero radius is a plain ray.
type LineOfSight interface {
	Clear(from, to physics.Vec2, radius float64) bool
}

// Sweep tests a segment exactly against every solid tile it can reach. Each tile is inflated
// by the radius, matching the square footprint CanOccupy uses, and checked with a slab test.
type Sweep struct {
	m Map
}

var _ LineOfSight = (*Sweep)(nil)

func NewSweep(m Map) *Sweep {
	return &Sweep{m: m}
}

func (s *Sweep) Clear(from, to physics.Vec2, radius float64) bool {
	inflate := 0.0
	if radius > 0 {
		inflate = radius - occupancyEpsilon
	}
	d := to.Sub(from)

	x0 := int(math.Floor(math.Min(from.X, to.X) - inflate))
	x1 := int(math.Floor(math.Max(from.X, to.X) + inflate))
	for x := x0; x <= x1; x++ {
		minX, maxX := float64(x)-inflate, float64(x+1)+inflate
		t0, t1, ok := slab(from.X, d.X, minX, maxX, 0, 1)
		if !ok {
			continue
		}
		// only the rows the segment covers while inside this column
		ya, yb := from.Y+d.Y*t0, from.Y+d.Y*t1
		if ya > yb {
			ya, yb = yb, ya
		}
		y0 := int(math.Floor(ya - inflate))
		y1 := int(math.Floor(yb + inflate))
		for y := y0; y <= y1; y++ {
			if !IsSolid(s.m, x, y) {
				continue
			}
			if segmentHitsBox(from, d, minX, float64(y)-inflate, maxX, float64(y+1)+inflate) {
				return false
			}
		}
	}
	return true
}

// segmentHitsBox reports whether from + t*d, t in [0, 1], touches the closed box.
func segmentHitsBox(from, d physics.Vec2, minX, minY, maxX, maxY float64) bool {
	t0, t1, ok := slab(from.X, d.X, minX, maxX, 0, 1)
	if !ok {
		return false
	}
	_, _, ok = slab(from.Y, d.Y, minY, maxY, t0, t1)
	return ok
}

// slab narrows [tMin, tMax] to the parameters where o + t*d lies in [lo, hi].
func slab(o, d, lo, hi, tMin, tMax float64) (float64, float64, bool) {
	if math.Abs(d) < 1e-12 {
		if o < lo || o > hi {
			return 0, 0, false
		}
		return tMin, tMax, true
	}
	t1 := (lo - o) / d
	t2 := (hi - o) / d
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	tMin = math.Max(tMin, t1)
	tMax = math.Min(tMax, t2)
	return tMin, tMax, tMin <= tMax
}

// LineOfSightFunc adapts a plain function.
type LineOfSightFunc func(from, to physics.Vec2, radius float64) bool

func (f LineOfSightFunc) Clear(from, to physics.Vec2, radius float64) bool {
	return f(from, to, radius)
}
