// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Formats accepted by Config.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config controls logger output.
type Config struct {
	Level        string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format       string `yaml:"format" validate:"omitempty,oneof=json console"`
	ReportCaller bool   `yaml:"report_caller"`
}

// New returns a logger writing to w. An unknown level falls back to info.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(cfg.Format, FormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.ReportCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Component returns a child logger tagged with the component name.
func Component(log *zerolog.Logger, name string) zerolog.Logger {
	if log == nil {
		return zerolog.Nop()
	}
	return log.With().Str("component", name).Logger()
}
