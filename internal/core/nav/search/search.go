// Package search answers positional queries against a fixed reference path, such as the
// corridor of a base: which node a point is nearest to, how far apart two nodes are along
// the path, and how far along the path a disc can see.
package search

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
)

var (
	ErrEmptyPath     = errors.New("search: empty reference path")
	ErrInvalidWindow = errors.New("search: window must be positive")
	ErrNilLOS        = errors.New("search: nil line of sight")
)

// Search is owned by one agent; it remembers the last nearest node as the seed of the next
// query.
type Search struct {
	path   []physics.Vec2
	cum    []float64
	los    tilemap.LineOfSight
	window int
	last   int
}

func New(path []physics.Vec2, los tilemap.LineOfSight, window int) (*Search, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if los == nil {
		return nil, ErrNilLOS
	}
	cum := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cum[i] = cum[i-1] + path[i-1].DistanceTo(path[i])
	}
	return &Search{path: path, cum: cum, los: los, window: window}, nil
}

func (s *Search) Len() int                { return len(s.path) }
func (s *Search) Node(i int) physics.Vec2 { return s.path[s.clamp(i)] }
func (s *Search) Path() []physics.Vec2    { return s.path }
func (s *Search) LastNearest() int        { return s.last }
func (s *Search) clamp(i int) int         { return max(0, min(i, len(s.path)-1)) }

// GetPathDistance is the arc length between nodes i and j along the path.
func (s *Search) GetPathDistance(i, j int) float64 {
	return math.Abs(s.cum[s.clamp(j)] - s.cum[s.clamp(i)])
}

type candidate struct {
	idx  int
	dist float64
	hops int
}

func (c candidate) better(o candidate) bool {
	if o.idx < 0 {
		return true
	}
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.hops < o.hops
}

// FindNearestNodeBFS expands outward along the path from the previous result. A direction
// stops after window consecutive nodes that do not get closer to p. Nodes visible from p
// win over hidden ones; equal distances go to the node fewer hops from the seed.
func (s *Search) FindNearestNodeBFS(p physics.Vec2) int {
	seed := s.clamp(s.last)
	visible := candidate{idx: -1}
	closest := candidate{idx: -1}

	consider := func(i, hops int) float64 {
		c := candidate{idx: i, dist: p.DistanceTo(s.path[i]), hops: hops}
		if c.better(closest) {
			closest = c
		}
		if c.better(visible) && s.los.Clear(p, s.path[i], 0) {
			visible = c
		}
		return c.dist
	}

	seedDist := consider(seed, 0)
	type branch struct {
		dir, stale int
		best       float64
		done       bool
	}
	branches := [2]branch{{dir: -1, best: seedDist}, {dir: 1, best: seedDist}}
	for hops := 1; !branches[0].done || !branches[1].done; hops++ {
		for b := range branches {
			br := &branches[b]
			if br.done {
				continue
			}
			i := seed + br.dir*hops
			if i < 0 || i >= len(s.path) {
				br.done = true
				continue
			}
			if d := consider(i, hops); d < br.best {
				br.best, br.stale = d, 0
			} else if br.stale++; br.stale >= s.window {
				br.done = true
			}
		}
	}

	if visible.idx < 0 {
		for i := range s.path {
			hops := i - seed
			if hops < 0 {
				hops = -hops
			}
			c := candidate{idx: i, dist: p.DistanceTo(s.path[i]), hops: hops}
			if c.better(visible) && s.los.Clear(p, s.path[i], 0) {
				visible = c
			}
			if c.better(closest) {
				closest = c
			}
		}
	}

	best := visible
	if best.idx < 0 {
		best = closest
	}
	s.last = best.idx
	return best.idx
}

// HighSide reports whether walking from node from toward node to increases the index.
func HighSide(from, to int) bool { return from < to }

func direction(highSide bool) int {
	if highSide {
		return 1
	}
	return -1
}

// ForwardLOSIndex walks from start toward higher indices when highSide is set, lower ones
// otherwise, and returns the furthest node a disc of radius can reach in a straight line
// from origin.
func (s *Search) ForwardLOSIndex(origin physics.Vec2, start int, radius float64, highSide bool) int {
	dir := direction(highSide)
	best := s.clamp(start)
	for i := best + dir; i >= 0 && i < len(s.path); i += dir {
		if !s.los.Clear(origin, s.path[i], radius) {
			break
		}
		best = i
	}
	return best
}

func (s *Search) FindForwardLOSNode(origin physics.Vec2, start int, radius float64, highSide bool) physics.Vec2 {
	return s.path[s.ForwardLOSIndex(origin, start, radius, highSide)]
}

// FindRearLOSNode is FindForwardLOSNode walking the other way.
func (s *Search) FindRearLOSNode(origin physics.Vec2, start int, radius float64, highSide bool) physics.Vec2 {
	return s.path[s.ForwardLOSIndex(origin, start, radius, !highSide)]
}
