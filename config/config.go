// Package config resolves runtime configuration from INKWELL_* environment
// variables, overridden by command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const EnvPrefix = "INKWELL_"

// Feed selections for the non-interactive feed command
const (
	FeedAll  = "all"
	FeedMine = "mine"
)

// Config holds all configuration parameters for running the application
type Config struct {
	// Storage
	DataDir      string `env:"DATA_DIR" envDefault:"."`
	DatabaseName string `env:"DB_NAME"`
	Ephemeral    bool   `env:"EPHEMERAL"`

	// CLI
	Theme    string `env:"THEME" envDefault:"dark"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Accounts and search
	BcryptCost  int           `env:"BCRYPT_COST"`
	SearchDelay time.Duration `env:"SEARCH_DELAY"`

	// Demo data
	Seed            bool `env:"SEED"`
	SeedAccounts    int  `env:"SEED_ACCOUNTS" envDefault:"5"`
	PostsPerAccount int  `env:"SEED_POSTS_PER_ACCOUNT" envDefault:"3"`

	// Non-interactive commands, flags only
	Search string
	Feed   string
}

// Load parses environ (KEY=value pairs, as from os.Environ) and then args
// (without the program name).
func Load(args []string, environ []string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:      EnvPrefix,
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = constants.DefaultDatabaseName
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SearchDelay == 0 {
		cfg.SearchDelay = constants.SearchDelay
	}

	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding the .data folder")
	fs.StringVar(&cfg.DatabaseName, "db", cfg.DatabaseName, "Database name")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "Keep all data in memory")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "Theme for the terminal UI (dark or light)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level (debug, info, warn, error)")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "Credential hashing cost")
	fs.DurationVar(&cfg.SearchDelay, "search-delay", cfg.SearchDelay, "Simulated search latency")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "Create demo accounts and posts on startup")
	fs.IntVar(&cfg.SeedAccounts, "seed-accounts", cfg.SeedAccounts, "Number of demo accounts")
	fs.IntVar(&cfg.PostsPerAccount, "posts-per-account", cfg.PostsPerAccount, "Number of demo posts per account")
	fs.StringVar(&cfg.Search, "search", "", "Print posts matching the query and exit")
	fs.StringVar(&cfg.Feed, "feed", "", "Print the home feed (all or mine) and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Theme != "dark" && c.Theme != "light" {
		errs = append(errs, fmt.Errorf("invalid theme %q: must be dark or light", c.Theme))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.SearchDelay < 0 {
		errs = append(errs, errors.New("search delay must not be negative"))
	}
	if c.SeedAccounts < 0 || c.PostsPerAccount < 0 {
		errs = append(errs, errors.New("seed counts must not be negative"))
	}
	if c.Feed != "" && c.Feed != FeedAll && c.Feed != FeedMine {
		errs = append(errs, fmt.Errorf("invalid feed %q: must be all or mine", c.Feed))
	}
	if c.Search != "" && c.Feed != "" {
		errs = append(errs, errors.New("-search and -feed cannot be combined"))
	}
	if c.DatabaseName == "" {
		errs = append(errs, errors.New("database name must not be empty"))
	}
	return errors.Join(errs...)
}

// Interactive reports whether the terminal UI should run.
func (c Config) Interactive() bool {
	return c.Search == "" && c.Feed == ""
}
