package store

import (
	"context"
	"sync"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
)

// SearchState is the snapshot published to Searcher subscribers.
type SearchState struct {
	Query   string
	Results []Post
	Loading bool
}

// Searcher runs post searches after a simulated latency. Only the most
// recent call may publish its results; an older call that finishes late is
// dropped.
type Searcher struct {
	posts *PostStore
	delay time.Duration

	mu    sync.Mutex
	seq   uint64
	state SearchState

	subscribers broadcaster[SearchState]
}

type SearcherOption func(*Searcher)

// WithSearchDelay overrides constants.SearchDelay. Zero runs immediately.
func WithSearchDelay(delay time.Duration) SearcherOption {
	return func(s *Searcher) {
		s.delay = delay
	}
}

func NewSearcher(posts *PostStore, options ...SearcherOption) *Searcher {
	s := &Searcher{
		posts: posts,
		delay: constants.SearchDelay,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Search waits for the configured delay, then runs query against the post
// store. It returns the results and whether they were published. Results
// superseded by a later call are returned but not published. A cancelled
// ctx abandons the search with ctx.Err().
func (s *Searcher) Search(ctx context.Context, query string) ([]Post, bool, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = SearchState{Query: query, Results: s.state.Results, Loading: true}
	state := s.state
	s.mu.Unlock()
	s.subscribers.publish(state)

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.settleAbandoned(seq)
			return nil, false, ctx.Err()
		case <-timer.C:
		}
	}

	results := s.posts.SearchPosts(query)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return results, false, nil
	}
	s.state = SearchState{Query: query, Results: results, Loading: false}
	state = s.state
	s.mu.Unlock()

	s.subscribers.publish(state)
	return results, true, nil
}

// State returns the last published search state.
func (s *Searcher) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Searcher) Subscribe(fn func(SearchState)) func() {
	return s.subscribers.subscribe(fn)
}

// settleAbandoned clears Loading when the newest search was cancelled.
func (s *Searcher) settleAbandoned(seq uint64) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.state.Loading = false
	state := s.state
	s.mu.Unlock()
	s.subscribers.publish(state)
}
