package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/skirmish/internal/core/bot"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/world"
)

const sample = `
log:
  level: debug
agent:
  tree: base
  stickiness: 1.5
  center: {x: 10.5, y: 15.5}
  base_routes:
    - start: {x: 33, y: 15}
      end: {x: 56, y: 15}
navigation:
  smooth: false
  max_expansions: 5000
simulation:
  ticks: 20
  dt: 0.05
  teams:
    - freq: 0
      size: 3
      anchors: 1
      spawn: {x: 40, y: 15}
    - freq: 1
      size: 1
      ship: 1
      tree: default
      spawn: {x: 12, y: 15}
debug:
  trace: true
`

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "skirmish.yaml")
	require.NoError(t, os.WriteFile(p, []byte(src), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, bot.TreeDefault, cfg.Agent.Tree)
	assert.Equal(t, 2.5, cfg.Agent.Stickiness)
	assert.Equal(t, [2]world.Frequency{0, 1}, cfg.Agent.Teams)
	assert.True(t, cfg.Agent.Pathfinding.Smooth)
	assert.Equal(t, 60000, cfg.Agent.Pathfinding.MaxExpansions)
	assert.Equal(t, 600, cfg.Simulation.Ticks)
	require.Len(t, cfg.Simulation.Teams, 2)
	assert.Equal(t, physics.V(31.5, 15.5), cfg.Simulation.Teams[1].Spawn)
	assert.False(t, cfg.Debug.Trace)
	assert.Len(t, cfg.AgentConfigs(), 4)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, bot.TreeBase, cfg.Agent.Tree)
	assert.Equal(t, 1.5, cfg.Agent.Stickiness)
	assert.Equal(t, 100, cfg.Agent.SearchWindow)
	assert.Equal(t, physics.V(10.5, 15.5), cfg.Agent.Center)
	require.Len(t, cfg.Agent.BaseRoutes, 1)
	assert.Equal(t, physics.V(56, 15), cfg.Agent.BaseRoutes[0].End)
	assert.False(t, cfg.Agent.Pathfinding.Smooth)
	assert.Equal(t, 5000, cfg.Agent.Pathfinding.MaxExpansions)
	assert.Equal(t, 2, cfg.Agent.Pathfinding.WallReach)
	assert.Equal(t, 0.05, cfg.Simulation.DT)
	assert.True(t, cfg.Debug.Trace)
	assert.Equal(t, "127.0.0.1:8080", cfg.Debug.Addr)

	agents := cfg.AgentConfigs()
	require.Len(t, agents, 4)
	assert.True(t, agents[0].IsAnchor)
	assert.False(t, agents[1].IsAnchor)
	assert.Equal(t, bot.TreeBase, agents[0].Tree)
	assert.Equal(t, bot.TreeDefault, agents[3].Tree)
	assert.Equal(t, world.Javelin, agents[3].Ship)
	assert.Equal(t, "freq1-0", agents[3].ID)
	assert.NotEqual(t, agents[0].Seed, agents[1].Seed)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SKIRMISH_SIMULATION_TICKS", "7")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Simulation.Ticks)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cases := map[string]string{
		"zero dt":       "simulation:\n  dt: 0\n",
		"empty team":    "simulation:\n  teams:\n    - freq: 0\n      size: 0\n",
		"shared freq":   "simulation:\n  teams:\n    - {freq: 1, size: 1}\n    - {freq: 1, size: 1}\n",
		"too many":      "simulation:\n  teams:\n    - {freq: 0, size: 1, anchors: 2}\n",
		"spectator":     "simulation:\n  teams:\n    - {freq: 0, size: 1, ship: 8}\n",
		"no trace addr": "debug:\n  trace: true\n  addr: \"\"\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, src))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
