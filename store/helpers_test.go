package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brunoscheufler/inkwell/kv"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	now atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.now.Store(time.Date(2025, 8, 14, 9, 0, 0, 0, time.UTC).UnixNano())
	return c
}

// Now advances by one second per call so consecutive posts never tie.
func (c *fakeClock) Now() time.Time {
	return time.Unix(0, c.now.Add(int64(time.Second))).UTC()
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

func testOptions() []Option {
	return []Option{
		WithBcryptCost(bcrypt.MinCost),
		WithClock(newFakeClock().Now),
		WithIDGenerator(sequentialIDs("id")),
	}
}

type testStores struct {
	storage kv.Storage
	users   *UserStore
	posts   *PostStore
}

func newTestStores(t *testing.T, storage kv.Storage) testStores {
	t.Helper()
	if storage == nil {
		storage = kv.NewMemoryStorage()
	}

	ctx := context.Background()
	options := testOptions()

	users := NewUserStore(storage, options...)
	require.NoError(t, users.Load(ctx))

	posts := NewPostStore(storage, users, options...)
	require.NoError(t, posts.Load(ctx))
	t.Cleanup(posts.Close)

	return testStores{storage: storage, users: users, posts: posts}
}

func rawValue(t *testing.T, storage kv.Storage, key string) []byte {
	t.Helper()
	raw, _, err := storage.Get(context.Background(), key)
	require.NoError(t, err)
	return raw
}

func titles(posts []Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

var errWriteFailed = errors.New("disk full")

// failingStorage rejects writes to failKey once armed.
type failingStorage struct {
	kv.Storage
	failKey string
	armed   atomic.Bool
}

func (f *failingStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.armed.Load() && key == f.failKey {
		return errWriteFailed
	}
	return f.Storage.Set(ctx, key, value)
}
