package store

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/kv"
	"github.com/stretchr/testify/require"
)

func TestPostStore_CreatePrepends(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	ann, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	first, err := s.posts.CreatePost(ctx, Draft{Title: "First", Body: "one"})
	require.NoError(t, err)
	second, err := s.posts.CreatePost(ctx, Draft{Title: "Second", Body: "two", Visibility: VisibilityPrivate})
	require.NoError(t, err)

	require.Equal(t, []string{"Second", "First"}, titles(slices.Collect(s.posts.ListAll())))

	require.Equal(t, ann.ID, first.OwnerID)
	require.Equal(t, ann, first.Author)
	require.Equal(t, VisibilityPublic, first.Visibility)
	require.Equal(t, VisibilityPrivate, second.Visibility)
	require.Equal(t, first.CreatedAt, first.UpdatedAt)
	require.Zero(t, first.Likes)
	require.NotNil(t, first.Hashtags)
	require.NotEqual(t, first.ID, second.ID)

	got, ok := s.posts.GetPost(first.ID)
	require.True(t, ok)
	require.Equal(t, first, got)

	_, ok = s.posts.GetPost("missing")
	require.False(t, ok)
}

func TestPostStore_CreateWithoutSession(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.posts.CreatePost(ctx, Draft{Title: "Nope"})
	require.ErrorIs(t, err, ErrNoSession)
	require.ErrorIs(t, s.posts.State().LastError, ErrNoSession)
	require.Empty(t, slices.Collect(s.posts.ListAll()))

	_, ok, err := s.storage.Get(ctx, constants.PostsKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPostStore_CreateHashtags(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	post, err := s.posts.CreatePost(ctx, Draft{Title: "Tags", Hashtags: []string{"#Go", " go ", "", "#", "Tips"}})
	require.NoError(t, err)
	require.Equal(t, []string{"Go", "Tips"}, post.Hashtags)

	_, err = s.posts.CreatePost(ctx, Draft{Title: "Too many", Hashtags: []string{"a", "b", "c", "d", "e", "f"}})
	require.ErrorIs(t, err, ErrTooManyHashtags)

	_, err = s.posts.CreatePost(ctx, Draft{Title: "Bad", Visibility: "friends"})
	require.ErrorIs(t, err, ErrInvalidVisibility)

	require.Len(t, slices.Collect(s.posts.ListAll()), 1)
}

func TestPostStore_UpdatePost(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	original, err := s.posts.CreatePost(ctx, Draft{Title: "Draft", Body: "body", Hashtags: []string{"go"}})
	require.NoError(t, err)

	title := "Final"
	private := VisibilityPrivate
	updated, err := s.posts.UpdatePost(ctx, original.ID, PostUpdate{
		Title:      &title,
		Visibility: &private,
		Hashtags:   []string{},
	})
	require.NoError(t, err)

	require.Equal(t, "Final", updated.Title)
	require.Equal(t, "body", updated.Body)
	require.Equal(t, VisibilityPrivate, updated.Visibility)
	require.Empty(t, updated.Hashtags)
	require.Equal(t, original.OwnerID, updated.OwnerID)
	require.Equal(t, original.CreatedAt, updated.CreatedAt)
	require.Equal(t, original.Author, updated.Author)
	require.True(t, updated.UpdatedAt.After(original.UpdatedAt))

	got, _ := s.posts.GetPost(original.ID)
	require.Equal(t, updated, got)

	_, err = s.posts.UpdatePost(ctx, "missing", PostUpdate{Title: &title})
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostStore_ForeignMutationsLeaveCollectionUnchanged(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	post, err := s.posts.CreatePost(ctx, Draft{Title: "Ann's", Body: "mine"})
	require.NoError(t, err)
	require.NoError(t, s.users.Logout(ctx))

	before := rawValue(t, s.storage, constants.PostsKey)
	beforePosts := slices.Collect(s.posts.ListAll())
	title := "Hijacked"

	t.Run("no session", func(t *testing.T) {
		_, err := s.posts.UpdatePost(ctx, post.ID, PostUpdate{Title: &title})
		require.ErrorIs(t, err, ErrNoSession)
		require.ErrorIs(t, s.posts.DeletePost(ctx, post.ID), ErrNoSession)

		require.Equal(t, before, rawValue(t, s.storage, constants.PostsKey))
		require.Equal(t, beforePosts, slices.Collect(s.posts.ListAll()))
	})

	t.Run("other account", func(t *testing.T) {
		_, err := s.users.Register(ctx, "Bob", "bob@x.com", "secret2")
		require.NoError(t, err)

		_, err = s.posts.UpdatePost(ctx, post.ID, PostUpdate{Title: &title})
		require.ErrorIs(t, err, ErrNotOwner)
		require.ErrorIs(t, s.posts.State().LastError, ErrNotOwner)

		require.ErrorIs(t, s.posts.DeletePost(ctx, post.ID), ErrNotOwner)

		require.Equal(t, before, rawValue(t, s.storage, constants.PostsKey))
		require.Equal(t, beforePosts, slices.Collect(s.posts.ListAll()))
	})
}

func TestPostStore_DeletePost(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	keep, err := s.posts.CreatePost(ctx, Draft{Title: "Keep"})
	require.NoError(t, err)
	drop, err := s.posts.CreatePost(ctx, Draft{Title: "Drop"})
	require.NoError(t, err)

	snapshot := slices.Collect(s.posts.ListAll())

	require.NoError(t, s.posts.DeletePost(ctx, drop.ID))
	require.Equal(t, []string{"Keep"}, titles(slices.Collect(s.posts.ListAll())))
	require.ErrorIs(t, s.posts.DeletePost(ctx, drop.ID), ErrPostNotFound)

	// Earlier snapshots are not affected by later mutations
	require.Equal(t, []string{"Drop", "Keep"}, titles(snapshot))

	_, ok := s.posts.GetPost(keep.ID)
	require.True(t, ok)
}

func TestPostStore_FeedAndOwnedPosts(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Ann public"})
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Ann private", Visibility: VisibilityPrivate})
	require.NoError(t, err)

	_, err = s.users.Register(ctx, "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Bob public"})
	require.NoError(t, err)

	require.Equal(t, []string{"Bob public", "Ann public"}, titles(s.posts.Feed(FeedAll)))
	require.Equal(t, []string{"Bob public"}, titles(s.posts.Feed(FeedFollowing)))
	require.Equal(t, []string{"Bob public"}, titles(s.posts.OwnedPosts()))

	_, err = s.users.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, []string{"Bob public", "Ann private", "Ann public"}, titles(s.posts.Feed(FeedAll)))
	require.Equal(t, []string{"Ann private", "Ann public"}, titles(s.posts.OwnedPosts()))
	require.Len(t, s.posts.ListByOwner(s.posts.OwnedPosts()[0].OwnerID), 2)

	require.NoError(t, s.users.Logout(ctx))
	require.Empty(t, s.posts.Feed(FeedFollowing))
	require.Empty(t, s.posts.OwnedPosts())
}

func TestPostStore_OwnedFollowsSession(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "Mine"})
	require.NoError(t, err)

	var mu sync.Mutex
	var last PostState
	unsubscribe := s.posts.Subscribe(func(state PostState) {
		mu.Lock()
		defer mu.Unlock()
		last = state
	})
	defer unsubscribe()

	require.NoError(t, s.users.Logout(ctx))
	mu.Lock()
	require.Empty(t, last.Owned)
	require.Len(t, last.Posts, 1)
	mu.Unlock()

	_, err = s.users.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	mu.Lock()
	require.Equal(t, []string{"Mine"}, titles(last.Owned))
	mu.Unlock()
}

func TestPostStore_Likes(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	public, err := s.posts.CreatePost(ctx, Draft{Title: "Public"})
	require.NoError(t, err)
	private, err := s.posts.CreatePost(ctx, Draft{Title: "Private", Visibility: VisibilityPrivate})
	require.NoError(t, err)

	bob, err := s.users.Register(ctx, "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)

	liked, err := s.posts.LikePost(ctx, public.ID)
	require.NoError(t, err)
	require.Equal(t, 1, liked.Likes)
	require.True(t, liked.LikedByAccount(bob.ID))

	liked, err = s.posts.LikePost(ctx, public.ID)
	require.NoError(t, err)
	require.Equal(t, 1, liked.Likes)

	_, err = s.posts.LikePost(ctx, private.ID)
	require.ErrorIs(t, err, ErrPostNotFound)

	unliked, err := s.posts.UnlikePost(ctx, public.ID)
	require.NoError(t, err)
	require.Zero(t, unliked.Likes)
	require.Nil(t, unliked.LikedBy)

	unliked, err = s.posts.UnlikePost(ctx, public.ID)
	require.NoError(t, err)
	require.Zero(t, unliked.Likes)

	require.NoError(t, s.users.Logout(ctx))
	_, err = s.posts.LikePost(ctx, public.ID)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestPostStore_RoundTrip(t *testing.T) {
	storage := kv.NewMemoryStorage()
	ctx := context.Background()

	first := newTestStores(t, storage)
	_, err := first.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = first.posts.CreatePost(ctx, Draft{
		Title:      "With everything",
		Body:       "<p>Hello</p>",
		CoverImage: "https://img.example/cover.png",
		Hashtags:   []string{"go", "tui"},
		Media:      []string{"https://img.example/1.png"},
	})
	require.NoError(t, err)
	liked, err := first.posts.CreatePost(ctx, Draft{Title: "Bare", Visibility: VisibilityPrivate})
	require.NoError(t, err)
	_, err = first.posts.LikePost(ctx, liked.ID)
	require.NoError(t, err)

	second := newTestStores(t, storage)
	require.Equal(t, slices.Collect(first.posts.ListAll()), slices.Collect(second.posts.ListAll()))
}

func TestPostStore_LoadCorruptData(t *testing.T) {
	storage := kv.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, constants.PostsKey, []byte(`{"id": 1}`)))

	s := newTestStores(t, storage)
	require.Empty(t, slices.Collect(s.posts.ListAll()))
	require.NoError(t, s.posts.State().LastError)

	_, ok, err := storage.Get(ctx, constants.PostsKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPostStore_LoadReportsLoading(t *testing.T) {
	storage := kv.NewMemoryStorage()
	users := NewUserStore(storage, testOptions()...)
	posts := NewPostStore(storage, users, testOptions()...)
	defer posts.Close()

	var loading []bool
	unsubscribe := posts.Subscribe(func(state PostState) {
		loading = append(loading, state.Loading)
	})
	defer unsubscribe()

	require.NoError(t, posts.Load(context.Background()))
	require.Equal(t, []bool{true, false}, loading)
}

func TestPostStore_ListAllStopsEarly(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.posts.CreatePost(ctx, Draft{Title: title})
		require.NoError(t, err)
	}

	var seen []string
	for post := range s.posts.ListAll() {
		seen = append(seen, post.Title)
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []string{"c", "b"}, seen)

	// The sequence can be ranged again from the start
	require.Len(t, slices.Collect(s.posts.ListAll()), 3)
}
