package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/world"
	"golang.org/x/sync/errgroup"
)

var ErrDuplicateAgent = errors.New("bot: agent already registered")

// Manager ticks many agents in parallel. Each agent is only ever run by one goroutine at a
// time.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]*Bot
	logger log.Log
	limit  int

	// serializes Update calls
	tick sync.Mutex
}

// NewManager returns a manager running at most concurrency agents at once; zero or less
// means no limit.
func NewManager(logger log.Log, concurrency int) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{agents: make(map[string]*Bot), logger: logger, limit: concurrency}
}

func (m *Manager) Add(b *Bot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.agents[b.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, b.ID())
	}
	m.agents[b.ID()] = b
	m.logger.Info("agent added", log.String("agent", b.ID()), log.Int("agents", len(m.agents)))
	return nil
}

func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.agents[id]; !exists {
		return false
	}
	delete(m.agents, id)
	m.logger.Info("agent removed", log.String("agent", id), log.Int("agents", len(m.agents)))
	return true
}

func (m *Manager) Get(id string) (*Bot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.agents[id]
	return b, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.agents)
}

// IDs returns the registered agent ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Update ticks every registered agent that has a snapshot in snaps and returns their
// intents by agent id. Snapshots for unknown agents are ignored. The first agent error
// cancels the remaining ticks and is returned.
func (m *Manager) Update(ctx context.Context, dt float64, snaps map[string]*world.Snapshot) (map[string]world.Intents, error) {
	m.tick.Lock()
	defer m.tick.Unlock()

	m.mu.RLock()
	agents := make([]*Bot, 0, len(snaps))
	for id := range snaps {
		if b, ok := m.agents[id]; ok {
			agents = append(agents, b)
		}
	}
	m.mu.RUnlock()

	results := make([]world.Intents, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	if m.limit > 0 {
		g.SetLimit(m.limit)
	}
	for i, b := range agents {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			intents, err := b.Update(gctx, dt, snaps[b.ID()])
			if err != nil {
				return fmt.Errorf("agent %s: %w", b.ID(), err)
			}
			results[i] = intents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("tick failed", log.Error(err))
		return nil, err
	}

	out := make(map[string]world.Intents, len(agents))
	for i, b := range agents {
		out[b.ID()] = results[i]
	}
	return out, nil
}
