package trace

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

type memorySink struct {
	frames []TickFrame
	err    error
}

func (s *memorySink) Publish(f TickFrame) error {
	s.frames = append(s.frames, f)
	return s.err
}

func sampleTree(t *testing.T) *behavior.Engine {
	t.Helper()
	tb := behavior.NewBuilder()
	root := tb.Selector("root",
		tb.Leaf("fail", behavior.Fail),
		tb.Leaf("ok", behavior.Succeed),
	)
	e, err := tb.Build(root)
	require.NoError(t, err)
	return e
}

func sampleContext() *behavior.ExecuteContext {
	bb := behavior.NewBlackboard()
	bb.SetPlayer("Target", 4)
	return &behavior.ExecuteContext{
		AgentID: "alpha",
		World: &world.Snapshot{
			Tick:    12,
			Self:    1,
			Players: []world.Player{{ID: 1, Position: physics.V(3, 4), Energy: 900}},
		},
		Blackboard: bb,
		Log:        log.NewNop(),
	}
}

func TestRecorderBuildsFrames(t *testing.T) {
	sink := &memorySink{}
	rec := NewRecorder(sink)
	rec.TargetKey = "Target"

	e := sampleTree(t)
	e.SetObserver(Tee{NewLogObserver(log.NewNop()), rec})
	ctx := sampleContext()

	assert.Equal(t, behavior.StatusSuccess, e.Tick(ctx))
	require.Len(t, sink.frames, 1)

	f := sink.frames[0]
	assert.Equal(t, "alpha", f.Agent)
	assert.Equal(t, uint64(12), f.Tick)
	assert.Equal(t, behavior.StatusSuccess.String(), f.Status)
	assert.Equal(t, 3.0, f.PosX)
	assert.Equal(t, 4.0, f.PosY)
	assert.Equal(t, 4, f.Target)

	names := make([]string, 0, len(f.Visited))
	for _, n := range f.Visited {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"root", "fail", "ok"}, names)

	// visited nodes reset between ticks
	e.Tick(ctx)
	require.Len(t, sink.frames, 2)
	assert.Len(t, sink.frames[1].Visited, 3)
	assert.Equal(t, sink.frames[1], rec.Last())
}

func TestRecorderCountsPublishErrors(t *testing.T) {
	rec := NewRecorder(&memorySink{err: errors.New("closed")})
	e := sampleTree(t)
	e.SetObserver(rec)

	e.Tick(sampleContext())
	e.Tick(sampleContext())
	assert.Equal(t, 2, rec.Errors())
	assert.Equal(t, int(world.NoPlayer), rec.Last().Target)
}

func TestHubStreamsFrames(t *testing.T) {
	hub := NewHub(log.NewNop(), 4)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(TickFrame{Agent: "alpha", Tick: 3, Status: "Success"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got TickFrame
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "alpha", got.Agent)
	assert.Equal(t, uint64(3), got.Tick)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsViewers(t *testing.T) {
	hub := NewHub(log.NewNop(), 1)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// new viewers are refused
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		defer late.Close()
		require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = late.ReadMessage()
		assert.Error(t, err)
	}
	hub.Broadcast([]byte("{}"))
	assert.Zero(t, hub.Dropped())
}
