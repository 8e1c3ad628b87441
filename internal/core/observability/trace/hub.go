package trace

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/skirmish/internal/core/observability/log"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub streams frames to every connected websocket viewer. Slow viewers miss frames rather
// than stall the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	logger  log.Log
	buffer  int
	dropped atomic.Uint64
}

func NewHub(logger log.Log, buffer int) *Hub {
	if logger == nil {
		logger = log.Provide()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{clients: make(map[string]*client), logger: logger, buffer: buffer}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// Clients is the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped counts frames not delivered because a viewer's buffer was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) Publish(frame TickFrame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	h.Broadcast(b)
	return nil
}

// Broadcast queues b for every viewer without blocking.
func (h *Hub) Broadcast(b []byte) {
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
	h.mu.RUnlock()
}

// ServeHTTP upgrades the request and streams frames until the viewer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, h.buffer)}
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("viewer connected", log.String("viewer", c.id))

	// reader: only needed to notice the viewer closing
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		_ = conn.Close()
		h.logger.Debug("viewer disconnected", log.String("viewer", c.id))
	}()
	for b := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.remove(c)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()
}
