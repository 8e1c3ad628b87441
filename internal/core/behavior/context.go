package behavior

import (
	"context"
	"math/rand"

	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/world"
)

// ExecuteContext is handed by pointer to every node visited during a tick.
type ExecuteContext struct {
	Context    context.Context
	AgentID    string
	World      *world.Snapshot
	DT         float64
	Blackboard *Blackboard
	Rand       *rand.Rand
	Log        log.Log
}

// Leaf is a unit of decision or action logic. Leaves may keep private state between ticks.
type Leaf interface {
	Execute(ctx *ExecuteContext) Status
}

// LeafFunc adapts a function to Leaf.
type LeafFunc func(ctx *ExecuteContext) Status

func (f LeafFunc) Execute(ctx *ExecuteContext) Status { return f(ctx) }

// Observer receives per-node results. Implementations must not retain ctx.
type Observer interface {
	OnNodeExecuted(ctx *ExecuteContext, id NodeID, name string, kind NodeKind, status Status)
	OnTickComplete(ctx *ExecuteContext, status Status)
}
