package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerParsesLevel(t *testing.T) {
	cases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tc := range cases {
		if got := NewLogger(Config{Level: tc.level}).GetLevel(); got != tc.want {
			t.Fatalf("level %q parsed as %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	for _, level := range []string{"", "verbose", "nonsense"} {
		if got := NewLogger(Config{Level: level}).GetLevel(); got != zerolog.InfoLevel {
			t.Fatalf("level %q should fall back to info, got %v", level, got)
		}
	}
}
