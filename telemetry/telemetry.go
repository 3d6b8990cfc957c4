package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/lmittmann/tint"
)

// Telemetry provides centralized logging and stats collection
type Telemetry struct {
	Logger         *slog.Logger
	LogCapture     *LogCapture
	StatsCollector StatsCollector

	logLevel slog.Level
	cliMode  bool
}

// Option configures a Telemetry instance
type Option func(*Telemetry)

// WithCLIMode keeps log output inside the capture buffer so it does not
// draw over the terminal UI.
func WithCLIMode(enabled bool) Option {
	return func(t *Telemetry) {
		t.cliMode = enabled
	}
}

// WithLogLevel sets the minimum level ("debug", "info", "warn", "error").
func WithLogLevel(level string) Option {
	return func(t *Telemetry) {
		t.logLevel = ParseLevel(level)
	}
}

// WithStatsCollector replaces the default in-memory stats collector.
func WithStatsCollector(collector StatsCollector) Option {
	return func(t *Telemetry) {
		t.StatsCollector = collector
	}
}

// New creates a new telemetry instance
func New(options ...Option) *Telemetry {
	t := &Telemetry{
		LogCapture: NewLogCapture(constants.DefaultLogBufferSize),
		logLevel:   slog.LevelDebug,
	}

	for _, option := range options {
		option(t)
	}

	if t.StatsCollector == nil {
		t.StatsCollector = NewStatsCollector()
	}

	var out io.Writer = t.LogCapture
	if !t.cliMode {
		t.LogCapture.AddWriter(os.Stderr)
	}

	t.Logger = slog.New(tint.NewHandler(out, &tint.Options{
		Level:      t.logLevel,
		TimeFormat: time.TimeOnly,
	}))

	return t
}

// GetLogger returns the structured logger, falling back to the default
// logger on a nil receiver.
func (t *Telemetry) GetLogger() *slog.Logger {
	if t == nil || t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// GetStatsCollector returns the stats collector
func (t *Telemetry) GetStatsCollector() StatsCollector {
	return t.StatsCollector
}

// Close stops background collection
func (t *Telemetry) Close() {
	if t.StatsCollector != nil {
		t.StatsCollector.Stop()
	}
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
