package app

import (
	"context"
	"errors"

	"trustlend-sim/internal/model"
	"trustlend-sim/internal/recorder"
)

// Replay runs the simulation headlessly for a fixed number of ticks,
// optionally recording every tick to the database. With a seed the run is
// fully reproducible.
func (a *App) Replay(ctx context.Context, opts ReplayOptions) error {
	if opts.Ticks <= 0 {
		return errors.New("--ticks must be greater than zero")
	}

	var store *recorder.Store
	if opts.Record {
		var closeStore func()
		var err error
		store, closeStore, err = a.openRecorder(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn not configured; cannot record replay")
		}
		if closeStore != nil {
			defer closeStore()
		}
	}

	simulator, err := a.newSimulator(store, nil, opts.Seed)
	if err != nil {
		return err
	}

	for i := 0; i < opts.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := simulator.Tick(ctx); err != nil {
			return err
		}
	}

	snap := simulator.Snapshot()
	danger := 0
	for _, loan := range snap.Loans {
		if loan.Status == model.StatusDanger {
			danger++
		}
	}

	a.Logger.Info().
		Int("ticks", opts.Ticks).
		Float64("eth_price", snap.ETHPrice).
		Float64("utilization", snap.UtilizationRate).
		Float64("apy", snap.CurrentAPY).
		Int("danger_loans", danger).
		Msg("replay finished")
	return nil
}
