package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: trustlendsim\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scheduler.Interval != 2*time.Second {
		t.Fatalf("default interval %v, want 2s", cfg.Scheduler.Interval)
	}
	if cfg.Protocol.InterestRate != 10 || cfg.Protocol.UtilizationTarget != 80 {
		t.Fatalf("protocol defaults not applied: %+v", cfg.Protocol)
	}
	if cfg.Protocol.LTVRatio != 150 {
		t.Fatalf("default ltv ratio %v, want 150", cfg.Protocol.LTVRatio)
	}
}

func TestLoadOverrides(t *testing.T) {
	body := `
scheduler:
  interval: 500ms
protocol:
  interest_rate: 12.5
  utilization_target: 60
simulation:
  seed: 42
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scheduler.Interval != 500*time.Millisecond {
		t.Fatalf("interval %v, want 500ms", cfg.Scheduler.Interval)
	}
	if cfg.Protocol.InterestRate != 12.5 {
		t.Fatalf("interest rate %v, want 12.5", cfg.Protocol.InterestRate)
	}
	if cfg.Simulation.Seed != 42 {
		t.Fatalf("seed %v, want 42", cfg.Simulation.Seed)
	}
}

func TestLoadRejectsInvalidProtocol(t *testing.T) {
	body := `
protocol:
  min_loan_amount: 5000
  max_loan_amount: 100
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("inverted loan bounds must be rejected")
	}
}

func TestLoadRejectsInfiniteLoanAmount(t *testing.T) {
	body := `
protocol:
  max_loan_amount: .inf
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("infinite loan amount must be rejected at the boundary")
	}
}

func TestLoadRejectsTelegramWithoutToken(t *testing.T) {
	body := `
alerting:
  enabled: true
  telegram:
    enabled: true
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("telegram without bot_token must be rejected")
	}
}
