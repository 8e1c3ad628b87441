// Package config loads the runtime configuration of the skirmish harness.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/zeusync/skirmish/internal/core/bot"
	"github.com/zeusync/skirmish/internal/core/nav/path"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

const envPrefix = "SKIRMISH"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Log log.Config `mapstructure:"log"`
	// Agent holds the defaults every spawned agent starts from.
	Agent      bot.Config       `mapstructure:"agent"`
	Navigation path.Config      `mapstructure:"navigation"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Debug      DebugConfig      `mapstructure:"debug"`
}

type SimulationConfig struct {
	// Map is an ascii map file; empty uses the built-in arena.
	Map         string       `mapstructure:"map"`
	Ticks       int          `mapstructure:"ticks"`
	DT          float64      `mapstructure:"dt"`
	Realtime    bool         `mapstructure:"realtime"`
	Seed        int64        `mapstructure:"seed"`
	Concurrency int          `mapstructure:"concurrency"`
	SharedCache bool         `mapstructure:"shared_cache"`
	Teams       []TeamConfig `mapstructure:"teams"`
}

type TeamConfig struct {
	Freq world.Frequency `mapstructure:"freq"`
	Size int             `mapstructure:"size"`
	Ship world.Ship      `mapstructure:"ship"`
	// Tree overrides the agent tree for this team.
	Tree string `mapstructure:"tree"`
	// Anchors is how many of the team's agents anchor.
	Anchors int          `mapstructure:"anchors"`
	Spawn   physics.Vec2 `mapstructure:"spawn"`
}

type DebugConfig struct {
	// Trace streams tick frames to websocket viewers on Addr.
	Trace  bool   `mapstructure:"trace"`
	Addr   string `mapstructure:"addr"`
	Buffer int    `mapstructure:"buffer"`
}

func setDefaults(v *viper.Viper) {
	agent := bot.DefaultConfig()
	nav := path.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("log.output_paths", []string{"stderr"})

	v.SetDefault("agent.tree", agent.Tree)
	v.SetDefault("agent.freq", int(agent.Freq))
	v.SetDefault("agent.search_window", agent.SearchWindow)
	v.SetDefault("agent.rusher_window", agent.RusherWindow)
	v.SetDefault("agent.hover_distance", agent.HoverDistance)
	v.SetDefault("agent.stickiness", agent.Stickiness)
	v.SetDefault("agent.teams", []int{int(agent.Teams[0]), int(agent.Teams[1])})

	v.SetDefault("navigation.avoid_radius", nav.AvoidRadius)
	v.SetDefault("navigation.avoid_penalty", nav.AvoidPenalty)
	v.SetDefault("navigation.wall_reach", nav.WallReach)
	v.SetDefault("navigation.wall_penalty", nav.WallPenalty)
	v.SetDefault("navigation.max_expansions", nav.MaxExpansions)
	v.SetDefault("navigation.snap_radius", nav.SnapRadius)
	v.SetDefault("navigation.smooth", nav.Smooth)

	v.SetDefault("simulation.map", "")
	v.SetDefault("simulation.ticks", 600)
	v.SetDefault("simulation.dt", 1.0/60)
	v.SetDefault("simulation.realtime", false)
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.concurrency", 0)
	v.SetDefault("simulation.shared_cache", true)
	v.SetDefault("simulation.teams", []map[string]any{
		{"freq": 0, "size": 2, "ship": int(world.Warbird), "spawn": map[string]any{"x": 8.5, "y": 15.5}},
		{"freq": 1, "size": 2, "ship": int(world.Javelin), "spawn": map[string]any{"x": 31.5, "y": 15.5}},
	})

	v.SetDefault("debug.trace", false)
	v.SetDefault("debug.addr", "127.0.0.1:8080")
	v.SetDefault("debug.buffer", 64)
}

// Load reads path, a yaml file, over the defaults. An empty path uses defaults only.
// Environment variables prefixed with SKIRMISH_ override single keys, e.g.
// SKIRMISH_SIMULATION_TICKS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Agent.Pathfinding = cfg.Navigation
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	sim := c.Simulation
	switch {
	case sim.DT <= 0:
		return fmt.Errorf("%w: simulation.dt must be positive, got %v", ErrInvalid, sim.DT)
	case sim.Ticks < 0:
		return fmt.Errorf("%w: simulation.ticks must not be negative", ErrInvalid)
	case len(sim.Teams) == 0:
		return fmt.Errorf("%w: simulation.teams is empty", ErrInvalid)
	}
	seen := make(map[world.Frequency]bool, len(sim.Teams))
	for i, t := range sim.Teams {
		if t.Size <= 0 {
			return fmt.Errorf("%w: simulation.teams[%d].size must be positive", ErrInvalid, i)
		}
		if t.Anchors < 0 || t.Anchors > t.Size {
			return fmt.Errorf("%w: simulation.teams[%d].anchors out of range", ErrInvalid, i)
		}
		if t.Ship >= world.Spectator {
			return fmt.Errorf("%w: simulation.teams[%d].ship %d", ErrInvalid, i, t.Ship)
		}
		if seen[t.Freq] {
			return fmt.Errorf("%w: frequency %d used by two teams", ErrInvalid, t.Freq)
		}
		seen[t.Freq] = true
	}
	if c.Agent.Stickiness <= 0 {
		return fmt.Errorf("%w: agent.stickiness must be positive", ErrInvalid)
	}
	if c.Debug.Trace && c.Debug.Addr == "" {
		return fmt.Errorf("%w: debug.addr is required with debug.trace", ErrInvalid)
	}
	return nil
}

// AgentConfigs expands the teams into one agent configuration each.
func (c *Config) AgentConfigs() []bot.Config {
	var out []bot.Config
	for _, t := range c.Simulation.Teams {
		for i := 0; i < t.Size; i++ {
			a := c.Agent
			a.ID = fmt.Sprintf("freq%d-%d", t.Freq, i)
			a.Name = a.ID
			a.Ship = t.Ship
			a.Freq = world.NoFrequency
			a.IsAnchor = i < t.Anchors
			if t.Tree != "" {
				a.Tree = t.Tree
			}
			if c.Simulation.Seed != 0 {
				a.Seed = c.Simulation.Seed + int64(len(out))
			}
			a.BaseRoutes = append([]bot.BaseRoute(nil), c.Agent.BaseRoutes...)
			a.PatrolNodes = append([]physics.Vec2(nil), c.Agent.PatrolNodes...)
			out = append(out, a)
		}
	}
	return out
}
