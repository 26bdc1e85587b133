package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"trustlend-sim/internal/alerting"
	"trustlend-sim/internal/config"
	"trustlend-sim/internal/recorder"
	"trustlend-sim/internal/scheduler"
	"trustlend-sim/internal/service"
	"trustlend-sim/internal/sim"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newEngine builds an engine seeded from the override if non-zero, otherwise
// from configuration.
func (a *App) newEngine(seedOverride int64) *sim.Engine {
	seed := a.Config.Simulation.Seed
	if seedOverride != 0 {
		seed = seedOverride
	}
	return sim.NewEngine(sim.NewRand(seed))
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openRecorder(ctx context.Context) (*recorder.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := recorder.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := recorder.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newSimulator wires the engine into the single-writer driver, with the
// recorder and notifier attached when configured.
func (a *App) newSimulator(store *recorder.Store, notifier alerting.Notifier, seedOverride int64) (*service.Simulator, error) {
	var ticks recorder.TickStore
	var liqs recorder.LiquidationStore
	if store != nil {
		ticks = store
		liqs = store
	}
	return service.New(a.newEngine(seedOverride), a.Config.Protocol, ticks, liqs, notifier, a.Logger)
}

// Run executes the long-running simulation service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openRecorder(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; tick recording disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	simulator, err := a.newSimulator(store, a.newNotifier(), 0)
	if err != nil {
		return err
	}

	// SIGUSR1 is the live pause/resume toggle; the scheduler keeps firing and
	// the simulator no-ops while paused.
	toggles := make(chan os.Signal, 1)
	signal.Notify(toggles, syscall.SIGUSR1)
	defer signal.Stop(toggles)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-toggles:
				simulator.TogglePause()
			}
		}
	}()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().
		Dur("interval", a.Config.Scheduler.Interval).
		Float64("eth_price", simulator.Snapshot().ETHPrice).
		Msg("starting simulation service")

	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return simulator.Tick(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("simulation service stopped")
	return nil
}

// ExportOptions hold parameters for exporting a simulated run.
type ExportOptions struct {
	Ticks     int
	Seed      int64
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ReplayOptions configure the headless replay job.
type ReplayOptions struct {
	Ticks  int
	Seed   int64
	Record bool
}

// CrashOptions configure the forced price-shock simulation.
type CrashOptions struct {
	Drop float64
}
