// Package influence keeps a per-tile estimate of where enemy weapons are about to pass. Casting
// raises tiles along each weapon's remaining flight, decay lowers them again near the agent.
package influence

import (
	"math"
	"sort"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

const (
	maxValue  float32 = 10
	castStep          = 0.5
	castReach         = 40.0

	bulletWeight float32 = 1
	bombWeight   float32 = 2
)

// Map is owned by a single agent.
type Map struct {
	cells []float32
	w, h  int
}

func New(w, h int) *Map {
	m := &Map{}
	m.Reset(w, h)
	return m
}

// Reset clears every cell and resizes the grid.
func (m *Map) Reset(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	m.w, m.h = w, h
	m.cells = make([]float32, w*h)
}

func (m *Map) Width() int  { return m.w }
func (m *Map) Height() int { return m.h }

func (m *Map) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return 0
	}
	return m.cells[y*m.w+x]
}

// Value is the influence of the tile containing p.
func (m *Map) Value(p physics.Vec2) float32 {
	x, y := p.Floor()
	return m.At(x, y)
}

// raise lifts a cell to at least v.
func (m *Map) raise(x, y int, v float32) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	if v > maxValue {
		v = maxValue
	}
	if i := y*m.w + x; m.cells[i] < v {
		m.cells[i] = v
	}
}

// Decay lowers every cell in the square of radius tiles around center by dt*multiplier.
func (m *Map) Decay(center physics.Vec2, radius, dt, multiplier float64) {
	amount := float32(dt * multiplier)
	if amount <= 0 {
		return
	}
	cx, cy := center.Floor()
	r := int(math.Ceil(radius))
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || y < 0 || x >= m.w || y >= m.h {
				continue
			}
			i := y*m.w + x
			if v := m.cells[i] - amount; v > 0 {
				m.cells[i] = v
			} else {
				m.cells[i] = 0
			}
		}
	}
}

// CastWeapons marks the remaining flight of every enemy weapon in snap. Flights stop at solid
// tiles. Mines mark the disc their blast would cover.
func (m *Map) CastWeapons(snap *world.Snapshot) {
	for _, w := range snap.EnemyWeapons() {
		switch w.Kind {
		case world.WeaponMine:
			m.castDisc(w.Position, snap.Settings.BombExplodeRadius, bombWeight)
			if w.Velocity.IsZero() {
				continue
			}
			m.castFlight(snap.Map, w, bombWeight)
		case world.WeaponBomb:
			m.castFlight(snap.Map, w, bombWeight)
		default:
			m.castFlight(snap.Map, w, bulletWeight)
		}
	}
}

func (m *Map) castFlight(tm tilemap.Map, w world.Weapon, weight float32) {
	speed := w.Velocity.Length()
	reach := math.Min(castReach, speed*w.Remaining)
	if speed == 0 || reach <= 0 {
		x, y := w.Position.Floor()
		m.raise(x, y, weight)
		return
	}
	dir := w.Velocity.Scale(1 / speed)
	for d := 0.0; d <= reach; d += castStep {
		x, y := w.Position.Add(dir.Scale(d)).Floor()
		if tm != nil && tilemap.IsSolid(tm, x, y) {
			return
		}
		m.raise(x, y, weight)
	}
}

func (m *Map) castDisc(center physics.Vec2, radius float64, weight float32) {
	cx, cy := center.Floor()
	r := int(math.Ceil(radius))
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if tilemap.TileCenter(x, y).DistanceTo(center) <= radius {
				m.raise(x, y, weight)
			}
		}
	}
}

// Touching reports whether a square of half-size radius centered at p overlaps influence,
// sampling its center and corners.
func (m *Map) Touching(p physics.Vec2, radius float64) bool {
	samples := [...]physics.Vec2{
		p,
		p.Add(physics.V(radius, radius)),
		p.Add(physics.V(-radius, -radius)),
		p.Add(physics.V(radius, -radius)),
		p.Add(physics.V(-radius, radius)),
	}
	for _, q := range samples {
		if m.Value(q) > 0 {
			return true
		}
	}
	return false
}

// Hotspots returns the centers of at most limit influenced tiles within radius of center,
// strongest first, nearer first on ties.
func (m *Map) Hotspots(center physics.Vec2, radius float64, limit int) []physics.Vec2 {
	type spot struct {
		p    physics.Vec2
		v    float32
		dist float64
	}
	var spots []spot
	cx, cy := center.Floor()
	r := int(math.Ceil(radius))
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			v := m.At(x, y)
			if v <= 0 {
				continue
			}
			c := tilemap.TileCenter(x, y)
			if d := c.DistanceTo(center); d <= radius {
				spots = append(spots, spot{c, v, d})
			}
		}
	}
	sort.SliceStable(spots, func(i, j int) bool {
		if spots[i].v != spots[j].v {
			return spots[i].v > spots[j].v
		}
		return spots[i].dist < spots[j].dist
	})
	if limit >= 0 && len(spots) > limit {
		spots = spots[:limit]
	}
	out := make([]physics.Vec2, len(spots))
	for i, s := range spots {
		out[i] = s.p
	}
	return out
}
