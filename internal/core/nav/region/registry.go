// Package region partitions a tile map into 4-connected areas reachable by a disc of fixed
// radius, so connectivity between two points becomes an id comparison.
package region

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
)

// ID identifies a region. NoRegion marks tiles a disc of the registry radius cannot occupy.
type ID int32

const NoRegion ID = -1

var (
	ErrInvalidRadius = errors.New("region: radius must be a finite non-negative number")
	ErrNilMap        = errors.New("region: nil map")
)

type table struct {
	w, h   int
	radius float64
	ids    []ID
	count  int
}

// Registry answers connectivity queries. Rebuild swaps a complete table in, so concurrent
// readers see the old or the new partition and never a partial one.
type Registry struct {
	current atomic.Pointer[table]
}

func New(m tilemap.Map, radius float64) (*Registry, error) {
	r := &Registry{}
	if err := r.Rebuild(m, radius); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Rebuild(m tilemap.Map, radius float64) error {
	t, err := build(m, radius)
	if err != nil {
		return err
	}
	r.current.Store(t)
	return nil
}

func build(m tilemap.Map, radius float64) (*table, error) {
	if m == nil {
		return nil, ErrNilMap
	}
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	w, h := m.Width(), m.Height()
	t := &table{w: w, h: h, radius: radius, ids: make([]ID, w*h)}

	const unvisited ID = -2
	for i := range t.ids {
		x, y := i%w, i/w
		if tilemap.CanOccupy(m, tilemap.TileCenter(x, y), radius) {
			t.ids[i] = unvisited
		} else {
			t.ids[i] = NoRegion
		}
	}

	stack := make([]int, 0, 256)
	for seed := range t.ids {
		if t.ids[seed] != unvisited {
			continue
		}
		id := ID(t.count)
		t.count++
		t.ids[seed] = id
		stack = append(stack[:0], seed)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= w || n[1] >= h {
					continue
				}
				j := n[1]*w + n[0]
				if t.ids[j] == unvisited {
					t.ids[j] = id
					stack = append(stack, j)
				}
			}
		}
	}
	return t, nil
}

// RegionOf returns the region of the tile containing p.
func (r *Registry) RegionOf(p physics.Vec2) ID {
	return r.current.Load().at(p)
}

// IsConnected reports whether a and b lie in the same region. A point on a tile the disc
// cannot occupy is connected to nothing.
func (r *Registry) IsConnected(a, b physics.Vec2) bool {
	t := r.current.Load()
	ra := t.at(a)
	return ra != NoRegion && ra == t.at(b)
}

func (r *Registry) Radius() float64 { return r.current.Load().radius }

// Count is the number of regions.
func (r *Registry) Count() int { return r.current.Load().count }

func (t *table) at(p physics.Vec2) ID {
	x, y := p.Floor()
	if x < 0 || y < 0 || x >= t.w || y >= t.h {
		return NoRegion
	}
	return t.ids[y*t.w+x]
}
