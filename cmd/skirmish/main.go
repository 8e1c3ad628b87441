package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/skirmish/internal/config"
	"github.com/zeusync/skirmish/internal/core/bot"
	"github.com/zeusync/skirmish/internal/core/observability/log"
	"github.com/zeusync/skirmish/internal/core/observability/trace"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
	"github.com/zeusync/skirmish/internal/core/tilemap"
	"github.com/zeusync/skirmish/internal/core/world"
	"github.com/zeusync/skirmish/internal/injector"
	"github.com/zeusync/skirmish/internal/server"
	"github.com/zeusync/skirmish/internal/sim"
)

func main() {
	cfgPath := flag.String("config", "", "runtime yaml file")
	ticks := flag.Int("ticks", -1, "override simulation.ticks, 0 runs until interrupted")
	render := flag.Bool("render", true, "print the board when the run ends")
	flag.Parse()

	app, err := injector.InitializeApp(injector.ConfigPath(*cfgPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "skirmish:", err)
		os.Exit(1)
	}
	defer func() { _ = app.Logger.Sync() }()
	if *ticks >= 0 {
		app.Config.Simulation.Ticks = *ticks
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := run(ctx, app)
	if err != nil {
		app.Logger.Error("run failed", log.Error(err))
		os.Exit(1)
	}
	if *render {
		fmt.Print(s.Render())
	}
	fmt.Println(s.Score())
}

func loadMap(path string) (tilemap.Map, error) {
	if path == "" {
		return sim.DefaultArena(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tilemap.ParseReader(f)
}

func run(ctx context.Context, app *injector.App) (*sim.Sim, error) {
	cfg := app.Config
	m, err := loadMap(cfg.Simulation.Map)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	s := sim.New(m, world.DefaultSettings(), app.Manager, app.Logger)

	if err := spawn(s, app, cfg); err != nil {
		return nil, err
	}

	if app.Hub != nil {
		srvCfg := server.DefaultServerConfig()
		srvCfg.ListenAddr = cfg.Debug.Addr
		srv := server.NewServer(srvCfg, app.Hub, app.Manager, app.Logger)
		if err := srv.Start(ctx); err != nil {
			return nil, err
		}
		defer func() { _ = srv.Close() }()
	}

	app.Logger.Info("simulation started",
		log.Int("agents", app.Manager.Len()),
		log.Int("ticks", cfg.Simulation.Ticks),
		log.Float64("dt", cfg.Simulation.DT),
	)

	step := time.Duration(cfg.Simulation.DT * float64(time.Second))
	var ticker *time.Ticker
	if cfg.Simulation.Realtime {
		ticker = time.NewTicker(step)
		defer ticker.Stop()
	}
	report := int(math.Max(1, math.Round(5/cfg.Simulation.DT)))

	for i := 0; cfg.Simulation.Ticks == 0 || i < cfg.Simulation.Ticks; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return s, nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return s, nil
		}

		if err := s.Step(ctx, cfg.Simulation.DT); err != nil {
			return s, err
		}
		if (i+1)%report == 0 {
			app.Logger.Info("score", log.Uint64("tick", s.Tick()), log.String("score", s.Score()))
		}
	}
	return s, nil
}

func spawn(s *sim.Sim, app *injector.App, cfg *config.Config) error {
	agents := cfg.AgentConfigs()
	idx := 0
	for _, team := range cfg.Simulation.Teams {
		// face the middle of the map
		middle := physics.V(float64(s.Map().Width())/2, float64(s.Map().Height())/2)
		heading := physics.HeadingAngle(middle.Sub(team.Spawn))

		for i := 0; i < team.Size; i++ {
			ac := agents[idx]
			idx++

			opts := []bot.Option{bot.WithLogger(app.Logger)}
			if app.Regions != nil {
				opts = append(opts, bot.WithRegionCache(app.Regions))
			}
			observers := trace.Tee{trace.NewLogObserver(app.Logger)}
			if app.Hub != nil {
				rec := trace.NewRecorder(app.Hub)
				rec.TargetKey = bot.KeyTarget
				observers = append(observers, rec)
			}
			opts = append(opts, bot.WithObserver(observers))

			b, err := bot.New(ac, opts...)
			if err != nil {
				return err
			}
			at := team.Spawn.Add(physics.V(0, float64(2*i-team.Size+1)))
			if _, err := s.Spawn(b, team.Ship, team.Freq, at, heading); err != nil {
				return fmt.Errorf("spawn %s: %w", ac.ID, err)
			}
		}
	}
	return nil
}
