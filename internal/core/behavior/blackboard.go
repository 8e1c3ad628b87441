package behavior

import (
	"sort"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

// Kind tags the value stored under a blackboard key.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindVec2
	KindPlayer
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindVec2:
		return "vec2"
	case KindPlayer:
		return "player"
	case KindPath:
		return "path"
	default:
		return "none"
	}
}

// Value is the closed set of types a blackboard can hold.
type Value interface {
	bool | int | float64 | physics.Vec2 | world.PlayerID | []physics.Vec2
}

type entry struct {
	kind   Kind
	b      bool
	i      int
	f      float64
	v      physics.Vec2
	player world.PlayerID
	path   []physics.Vec2
}

// Blackboard is per-agent memory shared by the leaves of one tree. It is not safe for
// concurrent use; an agent is only ever ticked by one goroutine.
type Blackboard struct {
	entries map[string]entry
}

func NewBlackboard() *Blackboard {
	return &Blackboard{entries: make(map[string]entry)}
}

// Get returns the value under key, or def when the key is absent or holds another kind.
// Paths are copied.
func Get[T Value](bb *Blackboard, key string, def T) T {
	e, ok := bb.entries[key]
	if !ok {
		return def
	}
	var out any
	switch e.kind {
	case KindBool:
		out = e.b
	case KindInt:
		out = e.i
	case KindFloat:
		out = e.f
	case KindVec2:
		out = e.v
	case KindPlayer:
		out = e.player
	case KindPath:
		out = append([]physics.Vec2(nil), e.path...)
	}
	if t, ok := out.(T); ok {
		return t
	}
	return def
}

// Set overwrites key unconditionally. Paths are copied.
func Set[T Value](bb *Blackboard, key string, val T) {
	var e entry
	switch v := any(val).(type) {
	case bool:
		e = entry{kind: KindBool, b: v}
	case int:
		e = entry{kind: KindInt, i: v}
	case float64:
		e = entry{kind: KindFloat, f: v}
	case physics.Vec2:
		e = entry{kind: KindVec2, v: v}
	case world.PlayerID:
		e = entry{kind: KindPlayer, player: v}
	case []physics.Vec2:
		e = entry{kind: KindPath, path: append([]physics.Vec2(nil), v...)}
	}
	bb.entries[key] = e
}

func (bb *Blackboard) Bool(key string, def bool) bool                 { return Get(bb, key, def) }
func (bb *Blackboard) Int(key string, def int) int                    { return Get(bb, key, def) }
func (bb *Blackboard) Float(key string, def float64) float64          { return Get(bb, key, def) }
func (bb *Blackboard) Vec2(key string, def physics.Vec2) physics.Vec2 { return Get(bb, key, def) }

func (bb *Blackboard) Path(key string) []physics.Vec2 { return Get[[]physics.Vec2](bb, key, nil) }

// Player returns the player reference under key, or world.NoPlayer.
func (bb *Blackboard) Player(key string) world.PlayerID { return Get(bb, key, world.NoPlayer) }

func (bb *Blackboard) SetBool(key string, v bool)             { Set(bb, key, v) }
func (bb *Blackboard) SetInt(key string, v int)               { Set(bb, key, v) }
func (bb *Blackboard) SetFloat(key string, v float64)         { Set(bb, key, v) }
func (bb *Blackboard) SetVec2(key string, v physics.Vec2)     { Set(bb, key, v) }
func (bb *Blackboard) SetPlayer(key string, v world.PlayerID) { Set(bb, key, v) }
func (bb *Blackboard) SetPath(key string, v []physics.Vec2)   { Set(bb, key, v) }

func (bb *Blackboard) Has(key string) bool { _, ok := bb.entries[key]; return ok }

func (bb *Blackboard) Kind(key string) Kind { return bb.entries[key].kind }

func (bb *Blackboard) Delete(key string) { delete(bb.entries, key) }

func (bb *Blackboard) Len() int { return len(bb.entries) }

// Keys returns every key in sorted order.
func (bb *Blackboard) Keys() []string {
	keys := make([]string, 0, len(bb.entries))
	for k := range bb.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot renders the blackboard as plain values for tracing.
func (bb *Blackboard) Snapshot() map[string]any {
	out := make(map[string]any, len(bb.entries))
	for k, e := range bb.entries {
		switch e.kind {
		case KindBool:
			out[k] = e.b
		case KindInt:
			out[k] = e.i
		case KindFloat:
			out[k] = e.f
		case KindVec2:
			out[k] = [2]float64{e.v.X, e.v.Y}
		case KindPlayer:
			out[k] = uint16(e.player)
		case KindPath:
			pts := make([][2]float64, len(e.path))
			for i, p := range e.path {
				pts[i] = [2]float64{p.X, p.Y}
			}
			out[k] = pts
		}
	}
	return out
}
