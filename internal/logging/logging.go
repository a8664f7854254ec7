package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config selects the log level and sinks.
type Config struct {
	Level   string `yaml:"level" json:"level"`
	Console bool   `yaml:"console" json:"console"`

	// File, when set, appends JSON lines to the given path in addition to
	// the console sink.
	File string `yaml:"file" json:"file"`
}

// New builds the root logger for cfg. The returned close function releases
// the log file, if any, and is always safe to call.
func New(cfg Config) (zerolog.Logger, func() error, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit console sink.
func NewWithWriter(cfg Config, console io.Writer) (zerolog.Logger, func() error, error) {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = consoleTimeFormat

	closeFn := func() error { return nil }
	writers := make([]io.Writer, 0, 2)

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: consoleTimeFormat})
	} else {
		writers = append(writers, console)
	}

	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, zerolog.SyncWriter(f))
		closeFn = f.Close
	}

	lvl := ParseLevel(cfg.Level, zerolog.WarnLevel)
	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().Logger()
	return log, closeFn, nil
}

// ParseLevel maps a level name onto a zerolog level, returning def for
// empty or unknown names.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return def
	}
}

// Component derives a logger tagged with the emitting component.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
