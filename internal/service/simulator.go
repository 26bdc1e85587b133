package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trustlend-sim/internal/alerting"
	"trustlend-sim/internal/model"
	"trustlend-sim/internal/recorder"
	"trustlend-sim/internal/sim"
)

// Simulator is the single-writer driver around the engine: it owns the
// current snapshot and parameter set, serializes ticks, and fans emitted
// events out to the recorder and the notifier. The rendering layer only ever
// reads complete snapshot values from it.
type Simulator struct {
	engine   *sim.Engine
	ticks    recorder.TickStore
	liqs     recorder.LiquidationStore
	notifier alerting.Notifier
	logger   zerolog.Logger

	mu     sync.RWMutex
	params model.ProtocolParams
	snap   model.Snapshot
	paused bool
}

// New validates the parameters, generates the initial snapshot, and returns a
// ready driver. Store and notifier may be nil; those sinks are then skipped.
func New(engine *sim.Engine, params model.ProtocolParams, ticks recorder.TickStore, liqs recorder.LiquidationStore, notifier alerting.Notifier, logger zerolog.Logger) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		engine:   engine,
		ticks:    ticks,
		liqs:     liqs,
		notifier: notifier,
		logger:   logger.With().Str("component", "simulator").Logger(),
		params:   params,
		snap:     engine.Generate(params),
	}, nil
}

// Snapshot returns the current snapshot value. Snapshots are immutable, so
// the caller may hold it across ticks.
func (s *Simulator) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Params returns the live parameter set.
func (s *Simulator) Params() model.ProtocolParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// SetParams swaps the parameter set atomically and rebuilds the snapshot from
// scratch, preserving the previous logical timestamp so the consumer's clock
// stays continuous across a rebuild.
func (s *Simulator) SetParams(params model.ProtocolParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rebuilt := s.engine.Generate(params)
	rebuilt.Timestamp = s.snap.Timestamp
	s.params = params
	s.snap = rebuilt

	s.logger.Info().
		Float64("interest_rate", params.InterestRate).
		Float64("liquidation_threshold", params.LiquidationThreshold).
		Float64("utilization_target", params.UtilizationTarget).
		Msg("parameters applied, snapshot rebuilt")
	return nil
}

// Pause suspends evolution. State is kept; ticks become no-ops.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.logger.Info().Msg("simulation paused")
}

// Resume re-enables evolution.
func (s *Simulator) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.logger.Info().Msg("simulation resumed")
}

// TogglePause flips the paused flag atomically; the runtime signal handler
// uses it so a toggle can never race a concurrent Pause/Resume into the same
// state twice.
func (s *Simulator) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	s.logger.Info().Bool("paused", s.paused).Msg("simulation pause toggled")
}

// Paused reports whether ticks are currently suspended.
func (s *Simulator) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// Tick advances the simulation by one step. Invocations are serialized; two
// ticks never run concurrently on the same snapshot. While paused the
// snapshot (including its timestamp) is left untouched.
func (s *Simulator) Tick(ctx context.Context) error {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		s.logger.Debug().Msg("paused, skipping tick")
		return nil
	}

	prev := s.snap
	next := s.engine.Evolve(prev, s.params)
	s.snap = next
	s.mu.Unlock()

	emitted := emittedEvents(next)

	s.logger.Debug().
		Float64("eth_price", next.ETHPrice).
		Float64("utilization", next.UtilizationRate).
		Float64("apy", next.CurrentAPY).
		Int("emitted_events", len(emitted)).
		Msg("tick applied")

	s.record(ctx, next, emitted)
	s.dispatch(ctx, next, emitted)
	return nil
}

// emittedEvents returns the events produced by this tick: the head of the
// event list stamped with the snapshot's own time.
func emittedEvents(snap model.Snapshot) []model.Event {
	var emitted []model.Event
	for _, ev := range snap.RecentEvents {
		if !ev.Timestamp.Equal(snap.Timestamp) {
			break
		}
		emitted = append(emitted, ev)
	}
	return emitted
}

func (s *Simulator) record(ctx context.Context, snap model.Snapshot, emitted []model.Event) {
	if s.ticks != nil {
		sample := recorder.TickSample{
			Tick:            snap.Timestamp,
			ETHPrice:        decimal.NewFromFloat(snap.ETHPrice),
			TVL:             decimal.NewFromFloat(snap.TVL),
			TotalBorrowed:   decimal.NewFromFloat(snap.TotalBorrowed),
			UtilizationRate: decimal.NewFromFloat(snap.UtilizationRate),
			CurrentAPY:      decimal.NewFromFloat(snap.CurrentAPY),
			ActiveLoans:     snap.ActiveLoans,
			DangerLoans:     countByStatus(snap.Loans, model.StatusDanger),
		}
		if err := s.ticks.InsertTickSample(ctx, sample); err != nil {
			s.logger.Error().Err(err).Time("tick", snap.Timestamp).Msg("failed to record tick sample")
		}
	}

	if s.liqs == nil {
		return
	}
	for _, ev := range emitted {
		loan, ok := snap.LoanByID(ev.LoanID)
		if !ok {
			continue
		}
		rec := recorder.LiquidationRecord{
			Tick:         ev.Timestamp,
			LoanID:       ev.LoanID,
			Kind:         string(ev.Type),
			HealthFactor: decimal.NewFromFloat(loan.HealthFactor),
			Price:        decimal.NewFromFloat(ev.Price),
			Threshold:    decimal.NewFromFloat(ev.Threshold),
		}
		if err := s.liqs.InsertLiquidation(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("loan", ev.LoanID).Msg("failed to record liquidation event")
		}
	}
}

func (s *Simulator) dispatch(ctx context.Context, snap model.Snapshot, emitted []model.Event) {
	if s.notifier == nil {
		return
	}
	for _, ev := range emitted {
		loan, _ := snap.LoanByID(ev.LoanID)
		note := alerting.Notification{
			Tick:         ev.Timestamp,
			LoanID:       ev.LoanID,
			Kind:         ev.Type,
			HealthFactor: decimal.NewFromFloat(loan.HealthFactor),
			Price:        decimal.NewFromFloat(ev.Price),
			Threshold:    decimal.NewFromFloat(ev.Threshold),
			Message:      ev.Message,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("loan", ev.LoanID).Msg("failed to dispatch alert")
		}
	}
}

func countByStatus(loans []model.Loan, status model.LoanStatus) int {
	n := 0
	for _, loan := range loans {
		if loan.Status == status {
			n++
		}
	}
	return n
}
