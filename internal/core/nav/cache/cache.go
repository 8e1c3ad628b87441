// Package cache shares region registries between agents that play on the same map with
// the same ship radius.
package cache

import (
	"strconv"
	"sync"

	"github.com/zeusync/skirmish/internal/core/nav/region"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"golang.org/x/sync/singleflight"
)

type key struct {
	fingerprint uint64
	radius      float64
}

func (k key) String() string {
	return strconv.FormatUint(k.fingerprint, 16) + "/" + strconv.FormatFloat(k.radius, 'g', -1, 64)
}

// Regions builds each (map, radius) registry once, even when many agents ask at the same
// time.
type Regions struct {
	mu      sync.RWMutex
	entries map[key]*region.Registry
	group   singleflight.Group
	logger  log.Log
	builds  int
}

func NewRegions(logger log.Log) *Regions {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Regions{entries: make(map[key]*region.Registry), logger: logger}
}

func (c *Regions) Get(m tilemap.Map, radius float64) (*region.Registry, error) {
	k := key{fingerprint: tilemap.Fingerprint(m), radius: radius}

	c.mu.RLock()
	r, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		return r, nil
	}

	v, err, shared := c.group.Do(k.String(), func() (any, error) {
		c.mu.RLock()
		r, ok := c.entries[k]
		c.mu.RUnlock()
		if ok {
			return r, nil
		}
		r, err := region.New(m, radius)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[k] = r
		c.builds++
		c.mu.Unlock()
		c.logger.Debug("region registry built",
			log.String("key", k.String()),
			log.Int("regions", r.Count()),
		)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("region registry build shared", log.String("key", k.String()))
	}
	return v.(*region.Registry), nil
}

// Len is the number of cached registries.
func (c *Regions) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Builds counts registries actually constructed.
func (c *Regions) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}

// Purge drops every registry.
func (c *Regions) Purge() {
	c.mu.Lock()
	c.entries = make(map[key]*region.Registry)
	c.mu.Unlock()
}
