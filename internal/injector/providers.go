package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/skirmish/internal/config"
	"github.com/zeusync/skirmish/internal/core/bot"
	"github.com/zeusync/skirmish/internal/core/nav/cache"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/observability/trace"
)

// ConfigPath is the runtime yaml file; empty means defaults only.
type ConfigPath string

// App is everything the harness needs to run agents.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Regions *cache.Regions
	Manager *bot.Manager
	// Hub is nil unless debug.trace is set.
	Hub *trace.Hub
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideRegionCache,
	ProvideManager,
	ProvideHub,
	wire.Struct(new(App), "*"),
)

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.NewFromConfig(cfg.Log)
}

// ProvideRegionCache returns nil when agents should build their own registries.
func ProvideRegionCache(cfg *config.Config, logger *log.Logger) *cache.Regions {
	if !cfg.Simulation.SharedCache {
		return nil
	}
	return cache.NewRegions(logger)
}

func ProvideManager(cfg *config.Config, logger *log.Logger) *bot.Manager {
	return bot.NewManager(logger, cfg.Simulation.Concurrency)
}

func ProvideHub(cfg *config.Config, logger *log.Logger) *trace.Hub {
	if !cfg.Debug.Trace {
		return nil
	}
	return trace.NewHub(logger, cfg.Debug.Buffer)
}
