package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSearcher_PublishesResults(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Go tips", Hashtags: []string{"go"}})
	require.NoError(t, err)

	searcher := NewSearcher(s.posts, WithSearchDelay(0))

	var states []SearchState
	unsubscribe := searcher.Subscribe(func(state SearchState) {
		states = append(states, state)
	})
	defer unsubscribe()

	results, published, err := searcher.Search(ctx, "#go")
	require.NoError(t, err)
	require.True(t, published)
	require.Equal(t, []string{"Go tips"}, titles(results))

	require.Len(t, states, 2)
	require.True(t, states[0].Loading)
	require.Equal(t, "#go", states[0].Query)
	require.False(t, states[1].Loading)
	require.Equal(t, []string{"Go tips"}, titles(states[1].Results))
	require.Equal(t, states[1], searcher.State())
}

func TestSearcher_StaleResultsDropped(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Alpha"})
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Beta"})
	require.NoError(t, err)

	searcher := NewSearcher(s.posts, WithSearchDelay(50*time.Millisecond))

	var wg sync.WaitGroup
	var olderPublished bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, olderPublished, _ = searcher.Search(ctx, "alpha")
	}()

	// Let the first call take its sequence number before the second starts
	require.Eventually(t, func() bool {
		return searcher.State().Query == "alpha"
	}, time.Second, time.Millisecond)

	results, published, err := searcher.Search(ctx, "beta")
	require.NoError(t, err)
	require.True(t, published)
	require.Equal(t, []string{"Beta"}, titles(results))

	wg.Wait()
	require.False(t, olderPublished)

	state := searcher.State()
	require.Equal(t, "beta", state.Query)
	require.Equal(t, []string{"Beta"}, titles(state.Results))
	require.False(t, state.Loading)
}

func TestSearcher_Cancelled(t *testing.T) {
	s := newTestStores(t, nil)
	searcher := NewSearcher(s.posts, WithSearchDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, published, err := searcher.Search(ctx, "anything")
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, published)
	require.Nil(t, results)
	require.False(t, searcher.State().Loading)
}
