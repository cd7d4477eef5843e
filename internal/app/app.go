package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/config"
	"github.com/al007ex/moomoo-clone/internal/game"
	servernet "github.com/al007ex/moomoo-clone/internal/net"
	"github.com/al007ex/moomoo-clone/internal/net/router"
	"github.com/al007ex/moomoo-clone/internal/net/ws"
	"github.com/al007ex/moomoo-clone/internal/persist"
	"github.com/al007ex/moomoo-clone/internal/sim"
	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/systems"
	"github.com/al007ex/moomoo-clone/internal/telemetry"
	"github.com/al007ex/moomoo-clone/internal/world"
	"github.com/al007ex/moomoo-clone/logging"
	loggingSinks "github.com/al007ex/moomoo-clone/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Logger telemetry.Logger
	// Settings skips config.Load when set.
	Settings *config.Config
	// Listener replaces the listener opened on Settings.Addr().
	Listener net.Listener
	// Ready is closed once the server accepts connections.
	Ready chan<- struct{}
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	var settings config.Config
	if cfg.Settings != nil {
		settings = *cfg.Settings
	} else {
		loaded, err := config.Load(telemetryLogger)
		if err != nil {
			return eris.Wrap(err, "failed to load configuration")
		}
		settings = loaded
	}

	logConfig := settings.LoggingRouterConfig()
	sinks, err := buildSinks(logConfig)
	if err != nil {
		return err
	}
	events, err := logging.NewRouter(logConfig, logging.SystemClock{}, fallbackLogger, sinks)
	if err != nil {
		return eris.Wrap(err, "failed to construct logging router")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := events.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	counters := &logging.Metrics{}
	metrics := telemetry.WrapMetrics(counters)

	w, err := world.New(settings.World, world.Deps{Logger: telemetryLogger})
	if err != nil {
		return eris.Wrap(err, "failed to construct world")
	}

	simDeps := sim.Deps{Logger: telemetryLogger, Metrics: metrics, Publisher: events}
	scheduler, err := sim.NewScheduler(sim.SchedulerConfig{
		Timestep:           settings.Timestep(),
		MaxUpdatesPerFrame: settings.Simulation.MaxUpdatesPerFrame,
	}, simDeps)
	if err != nil {
		return eris.Wrap(err, "failed to construct scheduler")
	}
	engine := sim.NewEngine(scheduler, state.New(), sim.EngineOptions{
		Deps:   simDeps,
		Guard:  w.SimulationLock(),
		Budget: settings.Timestep(),
	})
	pipeline := systems.NewPipeline(w, systems.PipelineOptions{
		LeaderboardSize: settings.Simulation.LeaderboardSize,
		MinimapInterval: settings.MinimapInterval(),
	})
	for _, system := range pipeline.Systems {
		engine.AddSystem(system)
	}

	adapter := persist.Open(settings.Archive.DSN, settings.Archive.Retain)
	if err := adapter.Connect(ctx); err != nil {
		return eris.Wrap(err, "failed to connect archive")
	}
	defer func() {
		if cerr := adapter.Disconnect(context.Background()); cerr != nil {
			telemetryLogger.Printf("failed to disconnect archive: %v", cerr)
		}
	}()
	if latest, ok, err := adapter.Latest(ctx); err != nil {
		telemetryLogger.Printf("failed to read latest archived snapshot: %v", err)
	} else if ok {
		telemetryLogger.Printf("archive holds snapshot of tick %d with %d players", latest.Tick, len(latest.Players))
	}
	archiver := persist.NewArchiver(adapter, uint64(settings.Archive.IntervalTicks), persist.ArchiverDeps{
		Logger:  telemetryLogger,
		Metrics: metrics,
	})
	engine.OnSnapshot(archiver.Observe)

	bus := game.NewCommandBus(w, game.Options{
		Throttle: router.ThrottleConfig{
			Capacity: settings.Throttle.Capacity,
			Refill:   settings.Throttle.Refill,
		},
	}, game.Deps{Logger: telemetryLogger, Metrics: metrics, Publisher: events})

	gateway := ws.NewGateway(bus, ws.Config{ConnectionLimit: settings.Server.ConnectionLimit}, ws.Deps{
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: events,
	})

	handler := servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
		Gateway:      gateway,
		PingEndpoint: settings.Server.PingEndpoint,
		Logger:       fallbackLogger,
		Profiling:    settings.Observability.EnablePprof,
		Players:      w.PlayerCount,
		Tick: func() uint64 {
			return engine.State().Tick()
		},
		TickRate:         settings.Simulation.UpdateRate,
		RouterStats:      events.Stats,
		Metrics:          counters,
		LastArchivedTick: archiver.LastArchivedTick,
	})

	listener := cfg.Listener
	if listener == nil {
		listener, err = net.Listen("tcp", settings.Addr())
		if err != nil {
			return eris.Wrapf(err, "failed to listen on %s", settings.Addr())
		}
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()
	go drainEngineErrors(ctx, engine, telemetryLogger)
	engine.Start()
	telemetryLogger.Printf("server listening on %s", listener.Addr())
	if cfg.Ready != nil {
		close(cfg.Ready)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = eris.Wrap(err, "server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bus.DisconnectAll(shutdownCtx)
	engine.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = eris.Wrap(err, "server shutdown")
	}
	if err := archiver.Close(shutdownCtx); err != nil {
		telemetryLogger.Printf("failed to drain archive: %v", err)
	}
	telemetryLogger.Printf("server stopped at tick %d", engine.State().Tick())
	return runErr
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, error) {
	var named []logging.NamedSink
	for _, name := range cfg.EnabledSinks {
		switch name {
		case logging.SinkConsole:
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewConsoleSink(os.Stdout, cfg.Console), Categories: cfg.CategoriesFor(name)})
		case logging.SinkJSON:
			if cfg.JSON.FilePath == "" {
				named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewJSON(os.Stdout, cfg.JSON.FlushInterval), Categories: cfg.CategoriesFor(name)})
				continue
			}
			sink, err := loggingSinks.OpenJSONFile(cfg.JSON.FilePath, cfg.JSON.FlushInterval)
			if err != nil {
				return nil, err
			}
			named = append(named, logging.NamedSink{Name: name, Sink: sink, Categories: cfg.CategoriesFor(name)})
		case logging.SinkZap:
			sink, err := loggingSinks.NewZapSink(cfg.Zap)
			if err != nil {
				return nil, err
			}
			named = append(named, logging.NamedSink{Name: name, Sink: sink, Categories: cfg.CategoriesFor(name)})
		case logging.SinkMemory:
			named = append(named, logging.NamedSink{Name: name, Sink: loggingSinks.NewMemorySink(), Categories: cfg.CategoriesFor(name)})
		default:
			return nil, eris.Errorf("unknown log sink %q", name)
		}
	}
	return named, nil
}

func drainEngineErrors(ctx context.Context, engine *sim.Engine, logger telemetry.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-engine.Errors():
			logger.Printf("simulation error: %v", err)
		}
	}
}
