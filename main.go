package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunoscheufler/inkwell/cli"
	"github.com/brunoscheufler/inkwell/config"
	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/content"
	"github.com/brunoscheufler/inkwell/kv"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/brunoscheufler/inkwell/telemetry"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Environ())
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := Run(cfg); err != nil {
		log.Fatal(err)
	}
}

// ApplicationComponents holds the initialized components needed to run the application
type ApplicationComponents struct {
	Storage   kv.Storage
	Users     *store.UserStore
	Posts     *store.PostStore
	Searcher  *store.Searcher
	Renderer  *content.Renderer
	Telemetry *telemetry.Telemetry
}

// Close releases the stores, storage and telemetry in reverse setup order
func (a *ApplicationComponents) Close() {
	a.Posts.Close()
	if err := persistStats(context.Background(), a.Storage, a.Telemetry.GetStatsCollector()); err != nil {
		a.Telemetry.GetLogger().Error("Failed to persist stats", "error", err)
	}
	if err := a.Storage.Close(); err != nil {
		a.Telemetry.GetLogger().Error("Failed to close storage", "error", err)
	}
	a.Telemetry.Close()
}

// openStorage opens the configured backend, checks it is usable and wraps
// it with access tracking
func openStorage(cfg config.Config, tel *telemetry.Telemetry) (kv.Storage, error) {
	logger := tel.GetLogger()

	var storage kv.Storage
	backend := "memory"
	if cfg.Ephemeral {
		storage = kv.NewMemoryStorage()
	} else {
		opts := kv.DefaultStoreOptions(cfg.DatabaseName)
		opts.BasePath = cfg.DataDir
		opts.Logger = logger

		var err error
		storage, err = kv.NewSQLiteStorage(opts)
		if err != nil {
			return nil, fmt.Errorf("could not open storage: %w", err)
		}
		backend = "sqlite"
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HealthCheckTimeout)
	defer cancel()
	if err := storage.HealthCheck(ctx); err != nil {
		storage.Close()
		return nil, fmt.Errorf("storage health check failed: %w", err)
	}

	return kv.Instrument(storage, backend, tel.GetStatsCollector(), logger), nil
}

// initializeApplication sets up all application components
func initializeApplication(ctx context.Context, cfg config.Config) (*ApplicationComponents, error) {
	tel := telemetry.New(
		telemetry.WithCLIMode(cfg.Interactive()),
		telemetry.WithLogLevel(cfg.LogLevel),
	)

	storage, err := openStorage(cfg, tel)
	if err != nil {
		tel.Close()
		return nil, err
	}

	if err := restoreStats(ctx, storage, tel.GetStatsCollector(), tel.GetLogger()); err != nil {
		storage.Close()
		tel.Close()
		return nil, err
	}

	options := []store.Option{
		store.WithLogger(tel.GetLogger()),
		store.WithStatsCollector(tel.GetStatsCollector()),
		store.WithBcryptCost(cfg.BcryptCost),
	}

	users := store.NewUserStore(storage, options...)
	if err := users.Load(ctx); err != nil {
		storage.Close()
		tel.Close()
		return nil, fmt.Errorf("could not load accounts: %w", err)
	}

	posts := store.NewPostStore(storage, users, options...)
	if err := posts.Load(ctx); err != nil {
		posts.Close()
		storage.Close()
		tel.Close()
		return nil, fmt.Errorf("could not load posts: %w", err)
	}

	return &ApplicationComponents{
		Storage:   storage,
		Users:     users,
		Posts:     posts,
		Searcher:  store.NewSearcher(posts, store.WithSearchDelay(cfg.SearchDelay)),
		Renderer:  content.NewRenderer(),
		Telemetry: tel,
	}, nil
}

func Run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer components.Close()

	if cfg.Seed {
		seeder := NewSeeder(components.Users, components.Posts, components.Telemetry.GetLogger(), SeederOptions{
			AccountCount:    cfg.SeedAccounts,
			PostsPerAccount: cfg.PostsPerAccount,
		})
		if _, err := seeder.Seed(ctx); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	theme := cli.GetTheme(cfg.Theme)

	switch {
	case cfg.Search != "":
		return runSearch(ctx, components, cfg.Search, theme)
	case cfg.Feed != "":
		return runFeed(components, cfg.Feed, theme)
	}

	return cli.RunCLI(&cli.AppConfig{
		Users:     components.Users,
		Posts:     components.Posts,
		Searcher:  components.Searcher,
		Renderer:  components.Renderer,
		Telemetry: components.Telemetry,
	}, cli.CLIOptions{
		Theme: cfg.Theme,
	})
}

func runSearch(ctx context.Context, components *ApplicationComponents, query string, theme cli.Theme) error {
	results, _, err := components.Searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	heading := fmt.Sprintf("Results for %q", query)
	return cli.RenderPostCards(os.Stdout, heading, results, components.Renderer, theme)
}

func runFeed(components *ApplicationComponents, feed string, theme cli.Theme) error {
	filter := store.FeedAll
	heading := "All posts"
	if feed == config.FeedMine {
		account, ok := components.Users.CurrentAccount()
		if !ok {
			return fmt.Errorf("cannot show your posts: %w", store.ErrNoSession)
		}
		filter = store.FeedFollowing
		heading = fmt.Sprintf("Posts by %s", account.Name)
	}
	return cli.RenderPostCards(os.Stdout, heading, components.Posts.Feed(filter), components.Renderer, theme)
}
