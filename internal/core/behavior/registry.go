package behavior

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/skirmish/internal/core/systems/physics"
)

var ErrUnknownLeaf = errors.New("behavior: unknown leaf")

// Params are the free-form arguments a config passes to a leaf factory.
type Params map[string]any

func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Float accepts any numeric encoding produced by the json and yaml decoders.
func (p Params) Float(key string, def float64) float64 {
	if f, ok := toFloat(p[key]); ok {
		return f
	}
	return def
}

func (p Params) Int(key string, def int) int {
	if f, ok := toFloat(p[key]); ok {
		return int(f)
	}
	return def
}

// Vec2 reads a two element list.
func (p Params) Vec2(key string, def physics.Vec2) physics.Vec2 {
	if v, ok := toVec2(p[key]); ok {
		return v
	}
	return def
}

// Path reads a list of two element lists. Any malformed point yields nil.
func (p Params) Path(key string) []physics.Vec2 {
	list, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]physics.Vec2, 0, len(list))
	for _, item := range list {
		v, ok := toVec2(item)
		if !ok {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func toVec2(v any) (physics.Vec2, bool) {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return physics.Vec2{}, false
	}
	x, okx := toFloat(list[0])
	y, oky := toFloat(list[1])
	return physics.V(x, y), okx && oky
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Factory builds a leaf from params.
type Factory func(params Params) (Leaf, error)

// Registry maps leaf names used in configs to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

// RegisterLeaf registers a factory that always returns l. Only use it for stateless leaves.
func (r *Registry) RegisterLeaf(name string, l Leaf) {
	r.Register(name, func(Params) (Leaf, error) { return l, nil })
}

func (r *Registry) New(name string, params Params) (Leaf, error) {
	r.mu.RLock()
	f := r.factories[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLeaf, name)
	}
	l, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("leaf %s: %w", name, err)
	}
	return l, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
