package service

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trustlend-sim/internal/model"
	"trustlend-sim/internal/sim"
)

// steppingClock returns strictly increasing times, one second per call.
func steppingClock() func() time.Time {
	base := time.Unix(1700000000, 0).UTC()
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestSimulator(t *testing.T, seed int64) *Simulator {
	t.Helper()
	engine := sim.NewEngineWithClock(sim.NewRand(seed), steppingClock())
	s, err := New(engine, model.DefaultParams(), nil, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRejectsInvalidParams(t *testing.T) {
	params := model.DefaultParams()
	params.MinLoanAmount = params.MaxLoanAmount

	engine := sim.NewEngineWithClock(sim.NewRand(1), steppingClock())
	if _, err := New(engine, params, nil, nil, nil, zerolog.Nop()); err == nil {
		t.Fatal("invalid parameters must be rejected at the boundary")
	}
}

func TestTickAdvancesSnapshot(t *testing.T) {
	s := newTestSimulator(t, 1)
	before := s.Snapshot()

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	after := s.Snapshot()
	if !after.Timestamp.After(before.Timestamp) {
		t.Fatalf("timestamp must advance: %v -> %v", before.Timestamp, after.Timestamp)
	}
	if len(after.PriceHistory) != len(before.PriceHistory) {
		// Both are already at the 101-entry window.
		t.Fatalf("history window changed: %d -> %d", len(before.PriceHistory), len(after.PriceHistory))
	}
}

func TestPauseFreezesStateAndResumeAdvances(t *testing.T) {
	s := newTestSimulator(t, 2)
	ctx := context.Background()

	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	frozen := s.Snapshot()

	s.Pause()
	if !s.Paused() {
		t.Fatal("Paused() should report true")
	}
	for i := 0; i < 3; i++ {
		if err := s.Tick(ctx); err != nil {
			t.Fatalf("paused Tick: %v", err)
		}
	}
	if !reflect.DeepEqual(frozen, s.Snapshot()) {
		t.Fatal("snapshot must not change across paused ticks")
	}

	s.Resume()
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("resumed Tick: %v", err)
	}
	if !s.Snapshot().Timestamp.After(frozen.Timestamp) {
		t.Fatal("first tick after resume must strictly advance the timestamp")
	}
}

func TestTogglePauseFlipsState(t *testing.T) {
	s := newTestSimulator(t, 6)
	ctx := context.Background()

	s.TogglePause()
	if !s.Paused() {
		t.Fatal("first toggle must pause")
	}
	frozen := s.Snapshot()
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("paused Tick: %v", err)
	}
	if !reflect.DeepEqual(frozen, s.Snapshot()) {
		t.Fatal("toggled pause must freeze the snapshot")
	}

	s.TogglePause()
	if s.Paused() {
		t.Fatal("second toggle must resume")
	}
	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !s.Snapshot().Timestamp.After(frozen.Timestamp) {
		t.Fatal("tick after toggled resume must advance the timestamp")
	}
}

func TestSetParamsRebuildsButKeepsClock(t *testing.T) {
	s := newTestSimulator(t, 3)
	before := s.Snapshot()

	edited := s.Params()
	edited.InterestRate = 20
	edited.UtilizationTarget = 60

	if err := s.SetParams(edited); err != nil {
		t.Fatalf("SetParams: %v", err)
	}

	after := s.Snapshot()
	if !after.Timestamp.Equal(before.Timestamp) {
		t.Fatal("rebuild must preserve the logical timestamp")
	}
	if len(after.Loans) != 50 {
		t.Fatalf("rebuild must regenerate the loan population, got %d loans", len(after.Loans))
	}
	if !reflect.DeepEqual(after.ProtocolParams, edited) {
		t.Fatal("snapshot must carry the new parameter set")
	}
	if got := s.Params(); !reflect.DeepEqual(got, edited) {
		t.Fatal("live params not swapped")
	}
}

func TestSetParamsRejectsInvalid(t *testing.T) {
	s := newTestSimulator(t, 4)
	before := s.Snapshot()

	bad := s.Params()
	bad.UtilizationTarget = 0

	if err := s.SetParams(bad); err == nil {
		t.Fatal("invalid params must be rejected")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatal("rejected params must leave the snapshot untouched")
	}
}

func TestConcurrentTicksAndReads(t *testing.T) {
	s := newTestSimulator(t, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = s.Tick(ctx)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				snap := s.Snapshot()
				if len(snap.PriceHistory) > 101 {
					t.Errorf("history window violated: %d", len(snap.PriceHistory))
					return
				}
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.ETHPrice < 2000 || snap.ETHPrice > 3000 {
		t.Fatalf("price %v escaped its bounds under concurrency", snap.ETHPrice)
	}
}
