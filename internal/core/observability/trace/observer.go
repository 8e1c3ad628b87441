// Package trace exposes behavior tree execution: to the log, or as json frames streamed to
// websocket viewers.
package trace

import (
	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/observability/log"
)

// LogObserver writes every visited node and the tick result to a logger at debug level.
type LogObserver struct {
	logger log.Log
}

func NewLogObserver(logger log.Log) *LogObserver {
	if logger == nil {
		logger = log.Provide()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnNodeExecuted(ctx *behavior.ExecuteContext, id behavior.NodeID, name string, kind behavior.NodeKind, status behavior.Status) {
	if o.logger.GetLevel() > log.LevelDebug {
		return
	}
	o.logger.Debug("node",
		log.String("agent", ctx.AgentID),
		log.Int("id", int(id)),
		log.String("name", name),
		log.Stringer("kind", kind),
		log.Stringer("status", status),
	)
}

func (o *LogObserver) OnTickComplete(ctx *behavior.ExecuteContext, status behavior.Status) {
	if o.logger.GetLevel() > log.LevelDebug {
		return
	}
	var tick uint64
	if ctx.World != nil {
		tick = ctx.World.Tick
	}
	o.logger.Debug("tree ticked",
		log.String("agent", ctx.AgentID),
		log.Uint64("tick", tick),
		log.Stringer("status", status),
	)
}

// Tee fans observations out to several observers in order.
type Tee []behavior.Observer

func (t Tee) OnNodeExecuted(ctx *behavior.ExecuteContext, id behavior.NodeID, name string, kind behavior.NodeKind, status behavior.Status) {
	for _, o := range t {
		o.OnNodeExecuted(ctx, id, name, kind, status)
	}
}

func (t Tee) OnTickComplete(ctx *behavior.ExecuteContext, status behavior.Status) {
	for _, o := range t {
		o.OnTickComplete(ctx, status)
	}
}
