// Package bot drives one combat agent: it senses the world snapshot, ticks its behavior
// tree and turns the resulting steering into intents.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/skirmish/internal/core/behavior"
	"github.com/zeusync/skirmish/internal/core/nav/cache"
	"github.com/zeusync/skirmish/internal/core/nav/influence"
	"github.com/zeusync/skirmish/internal/core/nav/path"
	"github.com/zeusync/skirmish/internal/core/nav/region"
	"github.com/zeusync/skirmish/internal/core/nav/search"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
)

var (
	ErrNoMap       = errors.New("bot: snapshot has no map")
	ErrSelfMissing = errors.New("bot: controlled player missing from snapshot")
)

// BaseRoute is a reference path through a base, built with the pathfinder when a map loads.
type BaseRoute struct {
	Start physics.Vec2 `mapstructure:"start" yaml:"start"`
	End   physics.Vec2 `mapstructure:"end" yaml:"end"`
}

type Config struct {
	// ID defaults to a random uuid.
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
	// Tree is TreeDefault, TreeBase or the path of a yaml or json tree description.
	Tree string `mapstructure:"tree" yaml:"tree"`
	// Seed of the agent's random source; zero seeds from the wall clock.
	Seed int64           `mapstructure:"seed" yaml:"seed"`
	Ship world.Ship      `mapstructure:"ship" yaml:"ship"`
	Freq world.Frequency `mapstructure:"freq" yaml:"freq"`
	// Center is a point in the open arena. The agent is "in center" while its region is
	// connected to it. The zero value means the middle of the map.
	Center        physics.Vec2       `mapstructure:"center" yaml:"center"`
	SearchWindow  int                `mapstructure:"search_window" yaml:"search_window"`
	RusherWindow  int                `mapstructure:"rusher_window" yaml:"rusher_window"`
	HoverDistance float64            `mapstructure:"hover_distance" yaml:"hover_distance"`
	Stickiness    float64            `mapstructure:"stickiness" yaml:"stickiness"`
	Teams         [2]world.Frequency `mapstructure:"teams" yaml:"teams"`
	IsAnchor      bool               `mapstructure:"is_anchor" yaml:"is_anchor"`
	BaseRoutes    []BaseRoute        `mapstructure:"base_routes" yaml:"base_routes"`
	PatrolNodes   []physics.Vec2     `mapstructure:"patrol_nodes" yaml:"patrol_nodes"`
	Pathfinding   path.Config        `mapstructure:"pathfinding" yaml:"pathfinding"`
}

func DefaultConfig() Config {
	return Config{
		Tree:          TreeDefault,
		Freq:          world.NoFrequency,
		SearchWindow:  100,
		RusherWindow:  30,
		HoverDistance: 10,
		Stickiness:    2.5,
		Teams:         [2]world.Frequency{0, 1},
		Pathfinding:   path.DefaultConfig(),
	}
}

type Option func(*Bot)

func WithLogger(l log.Log) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRegionCache shares region registries with other agents on the same map.
func WithRegionCache(c *cache.Regions) Option {
	return func(b *Bot) { b.cache = c }
}

func WithObserver(o behavior.Observer) Option {
	return func(b *Bot) { b.observer = o }
}

type searchKey struct {
	route  int
	window int
}

// Bot is a single agent. It is not safe for concurrent use.
type Bot struct {
	id       string
	cfg      Config
	logger   log.Log
	observer behavior.Observer
	cache    *cache.Regions

	engine *behavior.Engine
	bb     *behavior.Blackboard
	rng    *rand.Rand
	clock  *Clock

	steering Steering
	keys     world.Keys
	intents  world.Intents

	m           tilemap.Map
	fingerprint uint64
	radius      float64
	center      physics.Vec2
	regions     *region.Registry
	pathfinder  *path.Pathfinder
	los         tilemap.LineOfSight
	influence   *influence.Map
	basePaths   []path.Path
	searches    map[searchKey]*search.Search

	ticks uint64
}

func New(cfg Config, opts ...Option) (*Bot, error) {
	def := DefaultConfig()
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.SearchWindow <= 0 {
		cfg.SearchWindow = def.SearchWindow
	}
	if cfg.RusherWindow <= 0 {
		cfg.RusherWindow = def.RusherWindow
	}
	if cfg.Stickiness <= 0 {
		cfg.Stickiness = def.Stickiness
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	b := &Bot{
		id:         cfg.ID,
		cfg:        cfg,
		logger:     log.Provide(),
		bb:         behavior.NewBlackboard(),
		rng:        rand.New(rand.NewSource(seed)),
		clock:      NewClock(),
		pathfinder: path.New(cfg.Pathfinding),
		radius:     -1,
		searches:   make(map[searchKey]*search.Search),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(log.String("agent", b.id))

	b.bb.SetInt(KeyShip, int(cfg.Ship))
	b.bb.SetInt(KeyFreq, int(cfg.Freq))
	b.bb.SetBool(KeyIsAnchor, cfg.IsAnchor)
	b.bb.SetInt(KeyPubTeam0, int(cfg.Teams[0]))
	b.bb.SetInt(KeyPubTeam1, int(cfg.Teams[1]))
	b.bb.SetPlayer(KeyTarget, world.NoPlayer)
	if len(cfg.PatrolNodes) > 0 {
		b.bb.SetPath(KeyPatrolNodes, cfg.PatrolNodes)
	}

	engine, err := b.buildTree(cfg.Tree)
	if err != nil {
		return nil, fmt.Errorf("bot %s: %w", b.id, err)
	}
	if b.observer != nil {
		engine.SetObserver(b.observer)
	}
	b.engine = engine

	return b, nil
}

func (b *Bot) ID() string                       { return b.id }
func (b *Bot) Config() Config                   { return b.cfg }
func (b *Bot) Blackboard() *behavior.Blackboard { return b.bb }
func (b *Bot) Engine() *behavior.Engine         { return b.engine }
func (b *Bot) Pathfinder() *path.Pathfinder     { return b.pathfinder }
func (b *Bot) Regions() *region.Registry        { return b.regions }
func (b *Bot) Clock() *Clock                    { return b.clock }
func (b *Bot) BasePaths() []path.Path           { return b.basePaths }
func (b *Bot) Influence() *influence.Map        { return b.influence }

// Update runs one tick against snap and returns what the agent wants to do.
func (b *Bot) Update(ctx context.Context, dt float64, snap *world.Snapshot) (world.Intents, error) {
	if snap == nil || snap.Map == nil {
		return world.Intents{}, ErrNoMap
	}
	me, ok := snap.Player(snap.Self)
	if !ok {
		return world.Intents{}, fmt.Errorf("%w: id %d", ErrSelfMissing, snap.Self)
	}
	ship := snap.Settings.Ship(me.Ship)

	b.keys.ReleaseAll()
	b.intents = world.Intents{}
	b.steering.Reset(me, ship)

	if b.mapChanged(snap.Map) {
		if err := b.load(snap.Map, ship.Radius); err != nil {
			return world.Intents{}, err
		}
	} else if ship.Radius != b.radius && me.Ship != world.Spectator {
		if err := b.resize(ship.Radius); err != nil {
			return world.Intents{}, err
		}
	}

	b.clock.Advance(dt)
	b.ticks++
	b.bb.SetBool(KeyInCenter, b.regions.IsConnected(me.Position, b.center))

	ectx := &behavior.ExecuteContext{
		Context:    ctx,
		AgentID:    b.id,
		World:      snap,
		DT:         dt,
		Blackboard: b.bb,
		Rand:       b.rng,
		Log:        b.logger,
	}
	status := b.engine.Tick(ectx)

	if me.Ship != world.Spectator {
		b.keys |= b.steering.Steer(b.bb.Bool(KeySteerBackwards, false))
		b.bb.SetBool(KeySteerBackwards, false)
	}

	b.intents.Force = b.steering.Force()
	b.intents.Rotation = b.steering.Rotation()
	b.intents.Keys = b.keys

	if b.logger.GetLevel() <= log.LevelDebug {
		b.logger.Debug("tick",
			log.Uint64("tick", b.ticks),
			log.Stringer("status", status),
			log.String("keys", b.keys.String()),
		)
	}
	return b.intents, nil
}

// Move seeks target, stopping hover tiles short of it.
func (b *Bot) Move(target physics.Vec2, hover float64) {
	pos := b.steering.self.Position
	if pos.DistanceTo(target) > hover {
		b.steering.Seek(target, 1)
		return
	}
	to := target.Sub(pos)
	b.steering.Seek(target.Sub(to.Normalize().Scale(hover)), 1)
}

// mapChanged compares by identity first and falls back to the content fingerprint. Maps are
// treated as immutable once handed to the agent.
func (b *Bot) mapChanged(m tilemap.Map) bool {
	if b.m == nil {
		return true
	}
	if reflect.TypeOf(m).Comparable() && m == b.m {
		return false
	}
	if tilemap.Fingerprint(m) != b.fingerprint {
		return true
	}
	b.m = m
	return false
}

func (b *Bot) load(m tilemap.Map, radius float64) error {
	regions, err := b.regionsFor(m, radius)
	if err != nil {
		return fmt.Errorf("load map: %w", err)
	}

	b.m = m
	b.fingerprint = tilemap.Fingerprint(m)
	b.radius = radius
	b.regions = regions
	b.los = tilemap.NewSweep(m)
	b.influence = influence.New(m.Width(), m.Height())

	b.center = b.cfg.Center
	if b.center.IsZero() {
		b.center = tilemap.TileCenter(m.Width()/2, m.Height()/2)
	}

	b.pathfinder.CreateMapWeights(m)
	b.pathfinder.SetPathableNodes(m, radius)
	b.pathfinder.SetPath(nil)

	b.basePaths = b.createBasePaths(m, radius)
	b.searches = make(map[searchKey]*search.Search)

	b.logger.Info("map loaded",
		log.Int("width", m.Width()),
		log.Int("height", m.Height()),
		log.Float64("radius", radius),
		log.Int("regions", regions.Count()),
		log.Int("base_paths", len(b.basePaths)),
	)
	return nil
}

func (b *Bot) resize(radius float64) error {
	b.pathfinder.SetPathableNodes(b.m, radius)
	if b.cache != nil {
		regions, err := b.cache.Get(b.m, radius)
		if err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		b.regions = regions
	} else if err := b.regions.Rebuild(b.m, radius); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	b.logger.Debug("ship radius changed", log.Float64("from", b.radius), log.Float64("to", radius))
	b.radius = radius
	return nil
}

func (b *Bot) regionsFor(m tilemap.Map, radius float64) (*region.Registry, error) {
	if b.cache != nil {
		return b.cache.Get(m, radius)
	}
	return region.New(m, radius)
}

func (b *Bot) createBasePaths(m tilemap.Map, radius float64) []path.Path {
	paths := make([]path.Path, 0, len(b.cfg.BaseRoutes))
	for i, r := range b.cfg.BaseRoutes {
		p := b.pathfinder.FindPath(m, nil, r.Start, r.End, radius)
		if p.Empty() {
			b.logger.Warn("base route unreachable", log.Int("route", i))
		}
		paths = append(paths, p)
	}
	return paths
}

// basePath returns the first base path whose start shares a region with pos.
func (b *Bot) basePath(pos physics.Vec2) (int, path.Path, bool) {
	for i, p := range b.basePaths {
		if !p.Empty() && b.regions.IsConnected(pos, p[0]) {
			return i, p, true
		}
	}
	return -1, nil, false
}

// baseSearch returns the node search over the base path reachable from pos. Searches are
// kept per route and window so the nearest-node seed carries over between ticks.
func (b *Bot) baseSearch(pos physics.Vec2, window int) (*search.Search, bool) {
	idx, p, ok := b.basePath(pos)
	if !ok {
		return nil, false
	}
	k := searchKey{route: idx, window: window}
	if s, ok := b.searches[k]; ok {
		return s, true
	}
	s, err := search.New(p, b.los, window)
	if err != nil {
		b.logger.Warn("node search unavailable", log.Int("route", idx), log.Error(err))
		return nil, false
	}
	b.searches[k] = s
	return s, true
}
