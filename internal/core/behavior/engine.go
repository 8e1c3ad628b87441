// Package behavior implements a behavior tree evaluated once per tick. All nodes live in
// one arena owned by an Engine and refer to their children by NodeID.
package behavior

import (
	"errors"
	"fmt"
	"slices"
)

type NodeID int32

const NoNode NodeID = -1

type NodeKind uint8

const (
	KindLeaf NodeKind = iota
	KindSequence
	KindSelector
	KindParallel
)

func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSequence:
		return "sequence"
	case KindSelector:
		return "selector"
	case KindParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

var (
	ErrTopology  = errors.New("behavior: invalid tree topology")
	ErrNilLeaf   = errors.New("behavior: nil leaf")
	ErrNoRoot    = errors.New("behavior: no root")
	ErrEmptyName = errors.New("behavior: empty node name")
)

type node struct {
	kind     NodeKind
	name     string
	leaf     Leaf
	children []NodeID
	parent   NodeID
}

// Engine is an immutable tree produced by a Builder.
type Engine struct {
	nodes    []node
	root     NodeID
	observer Observer
}

// SetObserver installs o; nil disables observation.
func (e *Engine) SetObserver(o Observer) { e.observer = o }

func (e *Engine) Root() NodeID { return e.root }
func (e *Engine) Len() int     { return len(e.nodes) }

func (e *Engine) Name(id NodeID) string       { return e.nodes[id].name }
func (e *Engine) Kind(id NodeID) NodeKind     { return e.nodes[id].kind }
func (e *Engine) Children(id NodeID) []NodeID { return e.nodes[id].children }

// Find returns the first node with the given name.
func (e *Engine) Find(name string) (NodeID, bool) {
	for i := range e.nodes {
		if e.nodes[i].name == name {
			return NodeID(i), true
		}
	}
	return NoNode, false
}

// Walk visits nodes depth first from the root.
func (e *Engine) Walk(fn func(id NodeID, depth int)) {
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		fn(id, depth)
		for _, c := range e.nodes[id].children {
			visit(c, depth+1)
		}
	}
	visit(e.root, 0)
}

// Tick evaluates the tree once from the root.
func (e *Engine) Tick(ctx *ExecuteContext) Status {
	st := e.execute(e.root, ctx)
	if e.observer != nil {
		e.observer.OnTickComplete(ctx, st)
	}
	return st
}

func (e *Engine) execute(id NodeID, ctx *ExecuteContext) Status {
	n := &e.nodes[id]
	var st Status
	switch n.kind {
	case KindLeaf:
		st = n.leaf.Execute(ctx)
	case KindSequence:
		st = StatusSuccess
		for _, c := range n.children {
			if r := e.execute(c, ctx); r != StatusSuccess {
				st = r
				break
			}
		}
	case KindSelector:
		st = StatusFailure
		for _, c := range n.children {
			if r := e.execute(c, ctx); r != StatusFailure {
				st = r
				break
			}
		}
	case KindParallel:
		st = StatusSuccess
		for i, c := range n.children {
			r := e.execute(c, ctx)
			if i == 0 {
				st = r
			}
		}
	}
	if e.observer != nil {
		e.observer.OnNodeExecuted(ctx, id, n.name, n.kind, st)
	}
	return st
}

// Builder assembles an Engine bottom up. Children must be created before their parent and
// each node may be adopted once, so the result is always a tree. The first error is kept
// and returned by Build.
type Builder struct {
	nodes []node
	err   error
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Leaf(name string, l Leaf) NodeID {
	if l == nil {
		b.fail(fmt.Errorf("%w: %q", ErrNilLeaf, name))
		return NoNode
	}
	return b.add(KindLeaf, name, l, nil)
}

// LeafFunc is shorthand for Leaf(name, LeafFunc(fn)).
func (b *Builder) LeafFunc(name string, fn func(*ExecuteContext) Status) NodeID {
	if fn == nil {
		return b.Leaf(name, nil)
	}
	return b.Leaf(name, LeafFunc(fn))
}

func (b *Builder) Sequence(name string, children ...NodeID) NodeID {
	return b.add(KindSequence, name, nil, children)
}

func (b *Builder) Selector(name string, children ...NodeID) NodeID {
	return b.add(KindSelector, name, nil, children)
}

// Parallel evaluates every child each tick and reports the first child's status.
func (b *Builder) Parallel(name string, children ...NodeID) NodeID {
	return b.add(KindParallel, name, nil, children)
}

// Composite adds a composite by kind, used by the config loader.
func (b *Builder) Composite(kind NodeKind, name string, children ...NodeID) NodeID {
	if kind == KindLeaf {
		b.fail(fmt.Errorf("%w: %q is a leaf, not a composite", ErrTopology, name))
		return NoNode
	}
	return b.add(kind, name, nil, children)
}

func (b *Builder) Err() error { return b.err }

func (b *Builder) add(kind NodeKind, name string, l Leaf, children []NodeID) NodeID {
	if b.err != nil {
		return NoNode
	}
	if name == "" {
		b.fail(ErrEmptyName)
		return NoNode
	}
	id := NodeID(len(b.nodes))
	for i, c := range children {
		if c < 0 || int(c) >= len(b.nodes) {
			b.fail(fmt.Errorf("%w: %q references unknown child %d", ErrTopology, name, c))
			return NoNode
		}
		if p := b.nodes[c].parent; p != NoNode {
			b.fail(fmt.Errorf("%w: %q already belongs to %q", ErrTopology, b.nodes[c].name, b.nodes[p].name))
			return NoNode
		}
		if slices.Contains(children[:i], c) {
			b.fail(fmt.Errorf("%w: %q lists %q twice", ErrTopology, name, b.nodes[c].name))
			return NoNode
		}
	}
	for _, c := range children {
		b.nodes[c].parent = id
	}
	b.nodes = append(b.nodes, node{
		kind:     kind,
		name:     name,
		leaf:     l,
		children: append([]NodeID(nil), children...),
		parent:   NoNode,
	})
	return id
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build finalizes the tree rooted at root. Every node created by the builder must be
// reachable from root.
func (b *Builder) Build(root NodeID) (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if root < 0 || int(root) >= len(b.nodes) {
		return nil, ErrNoRoot
	}
	if p := b.nodes[root].parent; p != NoNode {
		return nil, fmt.Errorf("%w: root %q has parent %q", ErrTopology, b.nodes[root].name, b.nodes[p].name)
	}
	for i := range b.nodes {
		id := NodeID(i)
		if id != root && b.nodes[i].parent == NoNode {
			return nil, fmt.Errorf("%w: %q is not attached to the root", ErrTopology, b.nodes[i].name)
		}
	}
	e := &Engine{nodes: b.nodes, root: root}
	b.nodes = nil
	return e, nil
}
