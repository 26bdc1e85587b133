package sim

import (
	"testing"

	"trustlend-sim/internal/model"
)

func TestDynamicAPYBranchAgreementAtTarget(t *testing.T) {
	for _, target := range []float64{5, 10, 25, 50, 80, 99} {
		got := DynamicAPY(target, target, 10)
		if got != 10 {
			t.Fatalf("target %v: APY at the boundary must equal the base rate, got %v", target, got)
		}
	}
}

func TestDynamicAPYLinearRampBelowTarget(t *testing.T) {
	if got := DynamicAPY(40, 80, 10); got != 5 {
		t.Fatalf("expected 5%% at half target utilization, got %v", got)
	}
	if got := DynamicAPY(0, 80, 10); got != 0 {
		t.Fatalf("expected 0%% at zero utilization, got %v", got)
	}
}

func TestDynamicAPYSteepSlopeAboveTarget(t *testing.T) {
	// Reaches 3x the base rate at full utilization.
	if got := DynamicAPY(100, 80, 10); got != 30 {
		t.Fatalf("expected 30%% at 100%% utilization, got %v", got)
	}
	if got := DynamicAPY(90, 80, 10); got != 20 {
		t.Fatalf("expected 20%% halfway up the second slope, got %v", got)
	}
}

func TestDynamicAPYTargetAtHundred(t *testing.T) {
	if got := DynamicAPY(100, 100, 10); got != 10 {
		t.Fatalf("target 100 must not divide by zero, got %v", got)
	}
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		health float64
		want   model.LoanStatus
	}{
		{0.5, model.StatusDanger},
		{1.1999, model.StatusDanger},
		{1.2, model.StatusWarning}, // boundary is exclusive on the danger side
		{1.49, model.StatusWarning},
		{1.5, model.StatusSafe},
		{3.0, model.StatusSafe},
	}
	for _, tc := range cases {
		if got := Classify(tc.health); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.health, got, tc.want)
		}
	}
}

func TestHealthFactor(t *testing.T) {
	if got := HealthFactor(75, 50); got != 1.5 {
		t.Fatalf("HealthFactor(75, 50) = %v, want 1.5", got)
	}
	if got := HealthFactor(75, 75); got != 1 {
		t.Fatalf("HealthFactor(75, 75) = %v, want 1", got)
	}
}
