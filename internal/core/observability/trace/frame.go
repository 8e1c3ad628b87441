package trace

import (
	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/world"
)

// NodeTrace is one visited node in execution order.
type NodeTrace struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// TickFrame is what viewers receive for every agent tick.
type TickFrame struct {
	Agent   string      `json:"agent"`
	Tick    uint64      `json:"tick"`
	Status  string      `json:"status"`
	PosX    float64     `json:"pos_x"`
	PosY    float64     `json:"pos_y"`
	Energy  float64     `json:"energy"`
	Target  int         `json:"target"`
	Visited []NodeTrace `json:"visited"`
}

// Sink consumes finished frames.
type Sink interface {
	Publish(frame TickFrame) error
}

// Recorder collects the nodes visited during a tick into a TickFrame and hands it to a sink
// once the tick completes. A recorder belongs to one agent.
type Recorder struct {
	sink Sink
	// TargetKey names the blackboard entry holding the current target, if any.
	TargetKey string

	visited []NodeTrace
	last    TickFrame
	errs    int
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) OnNodeExecuted(_ *behavior.ExecuteContext, id behavior.NodeID, name string, kind behavior.NodeKind, status behavior.Status) {
	r.visited = append(r.visited, NodeTrace{ID: int(id), Name: name, Kind: kind.String(), Status: status.String()})
}

func (r *Recorder) OnTickComplete(ctx *behavior.ExecuteContext, status behavior.Status) {
	frame := TickFrame{
		Agent:   ctx.AgentID,
		Status:  status.String(),
		Target:  int(world.NoPlayer),
		Visited: r.visited,
	}
	if snap := ctx.World; snap != nil {
		me := snap.Me()
		frame.Tick = snap.Tick
		frame.PosX, frame.PosY = me.Position.X, me.Position.Y
		frame.Energy = me.Energy
	}
	if bb := ctx.Blackboard; bb != nil && r.TargetKey != "" {
		frame.Target = int(bb.Player(r.TargetKey))
	}
	r.visited = nil
	r.last = frame

	if r.sink == nil {
		return
	}
	if err := r.sink.Publish(frame); err != nil {
		r.errs++
		if ctx.Log != nil {
			ctx.Log.Warn("trace publish failed", log.Error(err))
		}
	}
}

// Last returns the most recent frame.
func (r *Recorder) Last() TickFrame { return r.last }

// Errors counts failed publishes.
func (r *Recorder) Errors() int { return r.errs }
