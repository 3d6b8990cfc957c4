package store

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/kv"
)

// PostStore owns the post collection. Mutations are authorized against the
// session resolved through a SessionSource and rewrite the whole "posts" key.
//
// The collection is copy-on-write: every mutation installs a new slice, so
// snapshots handed out earlier never change underneath their readers.
type PostStore struct {
	storage kv.Storage
	session SessionSource
	config  storeConfig

	mu      sync.RWMutex
	posts   []Post
	loading bool
	lastErr error

	state       broadcaster[PostState]
	unsubscribe func()
}

func NewPostStore(storage kv.Storage, session SessionSource, options ...Option) *PostStore {
	s := &PostStore{
		storage: storage,
		session: session,
		config:  newStoreConfig(options),
	}

	// Owned posts depend on who is signed in
	s.unsubscribe = session.Subscribe(func(UserState) {
		s.publish()
	})

	return s
}

// Load reads the collection from durable storage. Loading is reported to
// subscribers for the duration.
func (s *PostStore) Load(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.config.track("posts", "Load", start, err) }()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.publish()

	var posts []Post
	_, err = loadJSON(ctx, s.storage, constants.PostsKey, &posts, s.config.logger)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.posts = posts
	}
	s.lastErr = err
	s.mu.Unlock()

	s.config.logger.Debug("Loaded posts", "count", len(posts))
	s.publish()
	return err
}

// Close detaches the store from its session source.
func (s *PostStore) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// ListAll yields every post, newest created first. Each range over the
// returned sequence starts from the collection as it is at that moment.
func (s *PostStore) ListAll() iter.Seq[Post] {
	return func(yield func(Post) bool) {
		s.mu.RLock()
		posts := s.posts
		s.mu.RUnlock()

		for _, post := range posts {
			if !yield(post.clone()) {
				return
			}
		}
	}
}

// GetPost returns the post with the given identifier.
func (s *PostStore) GetPost(id string) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexByID(id)
	if idx < 0 {
		return Post{}, false
	}
	return s.posts[idx].clone(), true
}

// ListByOwner returns the posts owned by accountID in store order.
func (s *PostStore) ListByOwner(accountID string) []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []Post
	for _, post := range s.posts {
		if post.OwnerID == accountID {
			owned = append(owned, post.clone())
		}
	}
	return owned
}

// OwnedPosts returns the signed-in account's posts, newest first.
func (s *PostStore) OwnedPosts() []Post {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return nil
	}
	owned := s.ListByOwner(account.ID)
	sortNewestFirst(owned)
	return owned
}

// SearchPosts runs query against the collection as seen by the session.
func (s *PostStore) SearchPosts(query string) []Post {
	start := time.Now()
	defer s.config.track("posts", "SearchPosts", start, nil)

	s.mu.RLock()
	posts := s.posts
	s.mu.RUnlock()

	return Search(posts, query, s.sessionID())
}

// Feed returns the home feed: visible posts, newest created first.
func (s *PostStore) Feed(filter FeedFilter) []Post {
	s.mu.RLock()
	posts := s.posts
	s.mu.RUnlock()

	sessionID := s.sessionID()
	feed := FilterVisible(posts, sessionID)
	if filter == FeedFollowing {
		if sessionID == "" {
			return nil
		}
		feed = slices.DeleteFunc(feed, func(p Post) bool {
			return p.OwnerID != sessionID
		})
	}
	sortNewestFirst(feed)
	return feed
}

// CreatePost adds a post owned by the signed-in account to the front of the
// collection.
func (s *PostStore) CreatePost(ctx context.Context, draft Draft) (Post, error) {
	var created Post
	err := s.attempt("CreatePost", func() error {
		account, ok := s.session.CurrentAccount()
		if !ok {
			return ErrNoSession
		}

		visibility, err := normalizeVisibility(draft.Visibility)
		if err != nil {
			return err
		}
		hashtags, err := NormalizeHashtags(draft.Hashtags)
		if err != nil {
			return err
		}

		now := s.config.now()
		post := Post{
			ID:         s.config.newID(),
			Title:      draft.Title,
			Body:       draft.Body,
			CoverImage: draft.CoverImage,
			Visibility: visibility,
			OwnerID:    account.ID,
			Author:     account,
			CreatedAt:  now,
			UpdatedAt:  now,
			Hashtags:   hashtags,
			Media:      nonEmpty(draft.Media),
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		posts := make([]Post, 0, len(s.posts)+1)
		posts = append(posts, post)
		posts = append(posts, s.posts...)
		if err := s.commitLocked(ctx, posts); err != nil {
			return err
		}

		created = post.clone()
		s.config.logger.Info("Created post", "id", post.ID, "owner", post.OwnerID, "visibility", post.Visibility)
		return nil
	})
	return created, err
}

// UpdatePost merges update into a post owned by the signed-in account.
// Owner, creation time, author snapshot and likes are never changed.
func (s *PostStore) UpdatePost(ctx context.Context, id string, update PostUpdate) (Post, error) {
	var updated Post
	err := s.attempt("UpdatePost", func() error {
		account, ok := s.session.CurrentAccount()
		if !ok {
			return ErrNoSession
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		idx, err := s.ownedIndexLocked(id, account.ID)
		if err != nil {
			return err
		}

		post := s.posts[idx].clone()
		if update.Title != nil {
			post.Title = *update.Title
		}
		if update.Body != nil {
			post.Body = *update.Body
		}
		if update.CoverImage != nil {
			post.CoverImage = *update.CoverImage
		}
		if update.Visibility != nil {
			visibility, err := normalizeVisibility(*update.Visibility)
			if err != nil {
				return err
			}
			post.Visibility = visibility
		}
		if update.Hashtags != nil {
			hashtags, err := NormalizeHashtags(update.Hashtags)
			if err != nil {
				return err
			}
			post.Hashtags = hashtags
		}
		if update.Media != nil {
			post.Media = nonEmpty(update.Media)
		}
		post.UpdatedAt = s.config.now()

		posts := slices.Clone(s.posts)
		posts[idx] = post
		if err := s.commitLocked(ctx, posts); err != nil {
			return err
		}

		updated = post.clone()
		s.config.logger.Info("Updated post", "id", post.ID)
		return nil
	})
	return updated, err
}

// DeletePost removes a post owned by the signed-in account.
func (s *PostStore) DeletePost(ctx context.Context, id string) error {
	return s.attempt("DeletePost", func() error {
		account, ok := s.session.CurrentAccount()
		if !ok {
			return ErrNoSession
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		idx, err := s.ownedIndexLocked(id, account.ID)
		if err != nil {
			return err
		}

		posts := slices.Delete(slices.Clone(s.posts), idx, idx+1)
		if err := s.commitLocked(ctx, posts); err != nil {
			return err
		}

		s.config.logger.Info("Deleted post", "id", id)
		return nil
	})
}

// LikePost records a like from the signed-in account. Liking twice counts
// once.
func (s *PostStore) LikePost(ctx context.Context, id string) (Post, error) {
	return s.changeLike("LikePost", ctx, id, true)
}

// UnlikePost withdraws the signed-in account's like.
func (s *PostStore) UnlikePost(ctx context.Context, id string) (Post, error) {
	return s.changeLike("UnlikePost", ctx, id, false)
}

func (s *PostStore) changeLike(name string, ctx context.Context, id string, like bool) (Post, error) {
	var result Post
	err := s.attempt(name, func() error {
		account, ok := s.session.CurrentAccount()
		if !ok {
			return ErrNoSession
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		idx := s.indexByID(id)
		if idx < 0 || !VisibleTo(s.posts[idx], account.ID) {
			return ErrPostNotFound
		}

		post := s.posts[idx].clone()
		liked := post.LikedByAccount(account.ID)
		switch {
		case like && !liked:
			post.LikedBy = append(post.LikedBy, account.ID)
			post.Likes++
		case !like && liked:
			post.LikedBy = slices.DeleteFunc(post.LikedBy, func(v string) bool { return v == account.ID })
			post.LikedBy = nonEmpty(post.LikedBy)
			post.Likes = max(0, post.Likes-1)
		default:
			result = post
			return nil
		}

		posts := slices.Clone(s.posts)
		posts[idx] = post
		if err := s.commitLocked(ctx, posts); err != nil {
			return err
		}

		result = post.clone()
		return nil
	})
	return result, err
}

func (s *PostStore) State() PostState {
	s.mu.RLock()
	posts := s.posts
	loading := s.loading
	lastErr := s.lastErr
	s.mu.RUnlock()

	state := PostState{
		Posts:     make([]Post, 0, len(posts)),
		Loading:   loading,
		LastError: lastErr,
	}
	for _, post := range posts {
		state.Posts = append(state.Posts, post.clone())
	}
	state.Owned = s.OwnedPosts()
	return state
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (s *PostStore) Subscribe(fn func(PostState)) func() {
	return s.state.subscribe(fn)
}

func (s *PostStore) attempt(name string, op func() error) (err error) {
	start := time.Now()
	defer func() { s.config.track("posts", name, start, err) }()

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	err = op()

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.config.logger.Debug("Post operation rejected", "operation", name, "error", err)
	}

	s.publish()
	return err
}

// commitLocked persists posts and installs them as the collection.
func (s *PostStore) commitLocked(ctx context.Context, posts []Post) error {
	if err := saveJSON(ctx, s.storage, constants.PostsKey, posts); err != nil {
		return err
	}
	s.posts = posts
	return nil
}

func (s *PostStore) ownedIndexLocked(id, accountID string) (int, error) {
	idx := s.indexByID(id)
	if idx < 0 {
		return -1, ErrPostNotFound
	}
	if s.posts[idx].OwnerID != accountID {
		return -1, ErrNotOwner
	}
	return idx, nil
}

func (s *PostStore) indexByID(id string) int {
	return slices.IndexFunc(s.posts, func(p Post) bool {
		return p.ID == id
	})
}

func (s *PostStore) sessionID() string {
	if account, ok := s.session.CurrentAccount(); ok {
		return account.ID
	}
	return ""
}

func (s *PostStore) publish() {
	s.state.publish(s.State())
}

func normalizeVisibility(v Visibility) (Visibility, error) {
	switch v {
	case "", VisibilityPublic:
		return VisibilityPublic, nil
	case VisibilityPrivate:
		return VisibilityPrivate, nil
	default:
		return "", ErrInvalidVisibility
	}
}

func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return slices.Clone(values)
}

func sortNewestFirst(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
