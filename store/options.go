package store

import (
	"log/slog"
	"time"

	"github.com/brunoscheufler/inkwell/telemetry"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type storeConfig struct {
	logger     *slog.Logger
	clock      func() time.Time
	stats      telemetry.StatsCollector
	bcryptCost int
	newID      func() string
}

// Option configures UserStore and PostStore
type Option func(*storeConfig)

// WithLogger sets the logger used for load warnings and mutations
func WithLogger(logger *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithClock overrides the time source for timestamps
func WithClock(clock func() time.Time) Option {
	return func(c *storeConfig) {
		c.clock = clock
	}
}

// WithStatsCollector records every store operation
func WithStatsCollector(stats telemetry.StatsCollector) Option {
	return func(c *storeConfig) {
		c.stats = stats
	}
}

// WithBcryptCost sets the credential hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(c *storeConfig) {
		c.bcryptCost = cost
	}
}

// WithIDGenerator overrides identifier generation
func WithIDGenerator(newID func() string) Option {
	return func(c *storeConfig) {
		c.newID = newID
	}
}

func newStoreConfig(options []Option) storeConfig {
	config := storeConfig{
		logger:     slog.Default(),
		clock:      time.Now,
		bcryptCost: bcrypt.DefaultCost,
		newID:      uuid.NewString,
	}
	for _, option := range options {
		option(&config)
	}
	if config.logger == nil {
		config.logger = slog.Default()
	}
	return config
}

// now returns the current time in UTC without a monotonic reading so
// timestamps survive a JSON round trip unchanged.
func (c storeConfig) now() time.Time {
	return c.clock().UTC()
}

func (c storeConfig) track(store, operation string, start time.Time, err error) {
	if c.stats == nil {
		return
	}
	if trackErr := c.stats.TrackStoreOperation(store, operation, time.Since(start), err == nil); trackErr != nil {
		c.logger.Info("Failed to track store operation", "operation", operation, "error", trackErr.Error())
	}
}
