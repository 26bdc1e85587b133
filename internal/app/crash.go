package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"trustlend-sim/internal/alerting"
	"trustlend-sim/internal/sim"
)

// crashRand forces the first price draw to the maximum downward step and
// delegates everything else to a real source.
type crashRand struct {
	inner sim.Rand
	used  bool
}

func (c *crashRand) Float64() float64 {
	if !c.used {
		c.used = true
		return 0
	}
	return c.inner.Float64()
}

func (c *crashRand) Intn(n int) int { return c.inner.Intn(n) }

// SimulateCrash 构造一次强制砸盘并走完整的告警链路。The snapshot is generated
// normally, then evolved once with a rigged price step of -Drop USD; every
// event the crossing detector emits is pushed through the configured
// notifier.
func (a *App) SimulateCrash(ctx context.Context, opts CrashOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting not enabled")
	}
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}
	if opts.Drop <= 0 {
		return errors.New("--drop must be greater than zero")
	}

	params := a.Config.Protocol
	prev := a.newEngine(0).Generate(params)

	// step = (0 - 0.5) * 10 * volatility, so volatility = drop/5 yields
	// exactly -drop before clamping.
	shock := params
	shock.ETHVolatility = opts.Drop / 5

	rigged := sim.NewEngine(&crashRand{inner: sim.NewRand(a.Config.Simulation.Seed)})
	next := rigged.Evolve(prev, shock)

	a.Logger.Info().
		Float64("price_before", prev.ETHPrice).
		Float64("price_after", next.ETHPrice).
		Msg("applied forced price shock")

	emitted := 0
	for _, ev := range next.RecentEvents {
		if !ev.Timestamp.Equal(next.Timestamp) {
			break
		}
		emitted++

		loan, _ := next.LoanByID(ev.LoanID)
		note := alerting.Notification{
			Tick:         ev.Timestamp,
			LoanID:       ev.LoanID,
			Kind:         ev.Type,
			HealthFactor: decimal.NewFromFloat(loan.HealthFactor),
			Price:        decimal.NewFromFloat(ev.Price),
			Threshold:    decimal.NewFromFloat(ev.Threshold),
			Message:      ev.Message,
		}
		if err := notifier.Notify(ctx, note); err != nil {
			return err
		}
	}

	if emitted == 0 {
		a.Logger.Info().Msg("no loan crossed a boundary; nothing dispatched")
		return nil
	}
	a.Logger.Info().Int("alerts", emitted).Msg("crash alerts dispatched")
	return nil
}
