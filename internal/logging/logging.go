package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config is the `logging` configuration section.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	PrettyPrint bool   `mapstructure:"pretty"`
}

// NewLogger builds the root logger every component derives from. An unknown
// level falls back to info rather than failing startup: the simulator should
// still come up with a sloppy logging section.
func NewLogger(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	return zerolog.New(writer(cfg)).Level(level).With().Timestamp().Logger()
}

func writer(cfg Config) io.Writer {
	if cfg.PrettyPrint || strings.EqualFold(cfg.Format, "console") {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return os.Stdout
}
