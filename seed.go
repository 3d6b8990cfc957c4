package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/brunoscheufler/inkwell/store"
)

// DemoSecret is the credential of every seeded account.
const DemoSecret = "inkwell-demo"

type SeederOptions struct {
	AccountCount    int
	PostsPerAccount int
}

// SeedResult counts what a seeding run created.
type SeedResult struct {
	Accounts int
	Posts    int
	Skipped  int
}

// Seeder fills empty stores with demo writers and posts.
type Seeder struct {
	users   *store.UserStore
	posts   *store.PostStore
	logger  *slog.Logger
	options SeederOptions
}

var (
	demoNames = []string{"Ada Lovelace", "Grace Hopper", "Ken Thompson", "Barbara Liskov", "Rob Pike", "Frances Allen", "Dennis Ritchie", "Radia Perlman"}
	demoTags  = []string{"go", "writing", "tui", "databases", "concurrency", "testing", "design", "opensource"}
	demoTitle = []string{"Notes on %s", "What I learned about %s", "A short guide to %s", "Why %s matters", "Getting started with %s"}
)

func NewSeeder(users *store.UserStore, posts *store.PostStore, logger *slog.Logger, options SeederOptions) *Seeder {
	return &Seeder{
		users:   users,
		posts:   posts,
		logger:  logger,
		options: options,
	}
}

func demoEmail(i int) string {
	return fmt.Sprintf("writer%d@inkwell.local", i+1)
}

// Seed registers the demo accounts that do not exist yet and writes their
// posts, then signs out. Running it again creates nothing new.
//
// Registering signs in, so seeding is skipped while a session exists.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	if account, ok := s.users.CurrentAccount(); ok {
		s.logger.Warn("Skipping demo data while signed in", "account", account.Email)
		return SeedResult{}, nil
	}

	s.logger.Info("Seeding demo data",
		"accounts", s.options.AccountCount,
		"posts_per_account", s.options.PostsPerAccount,
	)

	var result SeedResult
	err := s.seedAccounts(ctx, &result)

	// The last registered demo account is still signed in
	if result.Accounts > 0 {
		if logoutErr := s.users.Logout(ctx); logoutErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to sign out after seeding: %w", logoutErr))
		}
	}
	if err != nil {
		return result, err
	}

	s.logger.Info("Seeded demo data",
		"accounts", result.Accounts,
		"posts", result.Posts,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *Seeder) seedAccounts(ctx context.Context, result *SeedResult) error {
	for i := 0; i < s.options.AccountCount; i++ {
		name := demoNames[i%len(demoNames)]
		if i >= len(demoNames) {
			name = fmt.Sprintf("%s %d", name, i/len(demoNames)+1)
		}

		account, err := s.users.Register(ctx, name, demoEmail(i), DemoSecret)
		if errors.Is(err, store.ErrDuplicateAccount) {
			result.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", demoEmail(i), err)
		}
		result.Accounts++

		// Seeded per account so reruns with more accounts stay stable
		rng := rand.New(rand.NewPCG(uint64(i), 42))
		for j := 0; j < s.options.PostsPerAccount; j++ {
			if _, err := s.posts.CreatePost(ctx, demoDraft(rng, account, j)); err != nil {
				return fmt.Errorf("failed to create post for %s: %w", account.Email, err)
			}
			result.Posts++
		}
	}
	return nil
}

func demoDraft(rng *rand.Rand, account store.Account, n int) store.Draft {
	tags := slices.Clone(demoTags)
	rng.Shuffle(len(tags), func(i, j int) { tags[i], tags[j] = tags[j], tags[i] })
	tags = tags[:1+rng.IntN(3)]

	topic := tags[0]
	visibility := store.VisibilityPublic
	if n%3 == 2 {
		visibility = store.VisibilityPrivate
	}

	return store.Draft{
		Title:      fmt.Sprintf(demoTitle[rng.IntN(len(demoTitle))], topic),
		Body:       fmt.Sprintf("<p>%s shares some thoughts on <strong>%s</strong>.</p><p>Post %d of a demo series.</p>", account.Name, topic, n+1),
		Visibility: visibility,
		Hashtags:   tags,
	}
}
