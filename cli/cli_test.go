package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brunoscheufler/inkwell/content"
	"github.com/brunoscheufler/inkwell/kv"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUsers(t *testing.T) *store.UserStore {
	t.Helper()
	users := store.NewUserStore(kv.NewMemoryStorage(), store.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, users.Load(context.Background()))
	return users
}

func testPost() store.Post {
	created := time.Date(2025, 8, 14, 9, 0, 0, 0, time.UTC)
	return store.Post{
		ID:         "p1",
		Title:      "Gardening notes",
		Body:       "# Tomatoes\n\nWater them **daily**.",
		Visibility: store.VisibilityPublic,
		OwnerID:    "a1",
		Author:     store.Account{ID: "a1", Name: "Ada"},
		CreatedAt:  created,
		UpdatedAt:  created,
		Hashtags:   []string{"garden", "food"},
		Likes:      2,
		LikedBy:    []string{"a2", "a3"},
	}
}

func TestUpgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("requires session", func(t *testing.T) {
		_, err := upgrade(ctx, newUsers(t), time.Millisecond)
		require.ErrorIs(t, err, store.ErrNoSession)
	})

	t.Run("marks account premium", func(t *testing.T) {
		users := newUsers(t)
		_, err := users.Register(ctx, "Ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		account, err := upgrade(ctx, users, time.Millisecond)
		require.NoError(t, err)
		require.True(t, account.Premium)

		account, err = cancelMembership(ctx, users)
		require.NoError(t, err)
		require.False(t, account.Premium)
	})

	t.Run("cancelled payment leaves account unchanged", func(t *testing.T) {
		users := newUsers(t)
		_, err := users.Register(ctx, "Ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = upgrade(cancelled, users, time.Hour)
		require.True(t, errors.Is(err, context.Canceled))

		account, ok := users.CurrentAccount()
		require.True(t, ok)
		require.False(t, account.Premium)
	})
}

func TestRenderPostCards(t *testing.T) {
	renderer := content.NewRenderer()
	theme := GetTheme("dark")

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderPostCards(&buf, "All posts", nil, renderer, theme))
		require.Contains(t, buf.String(), "All posts")
		require.Contains(t, buf.String(), "No posts found")
	})

	t.Run("cards", func(t *testing.T) {
		private := testPost()
		private.ID = "p2"
		private.Title = "Diary"
		private.Visibility = store.VisibilityPrivate

		var buf bytes.Buffer
		require.NoError(t, RenderPostCards(&buf, "Results", []store.Post{testPost(), private}, renderer, theme))

		out := buf.String()
		require.Contains(t, out, "Gardening notes")
		require.Contains(t, out, "Diary (private)")
		require.Contains(t, out, "Ada")
		require.Contains(t, out, "#garden #food")
		require.Contains(t, out, "daily")
		require.NotContains(t, out, "**")
		require.Contains(t, out, "2 posts")
	})
}

func TestFormatTags(t *testing.T) {
	require.Equal(t, "", formatTags(nil, 3))
	require.Equal(t, "#a #b", formatTags([]string{"a", "b"}, 3))
	require.Equal(t, "#a #b +2", formatTags([]string{"a", "b", "c", "d"}, 2))
	require.Equal(t, "#a #b #c #d", formatTags([]string{"a", "b", "c", "d"}, 0))
}

func TestFormatPostDetail(t *testing.T) {
	renderer := content.NewRenderer()
	theme := GetTheme("dark")
	post := testPost()

	anonymous := formatPostDetail(post, "", renderer, theme)
	require.Contains(t, anonymous, "Gardening notes")
	require.Contains(t, anonymous, "♡ 2 likes")
	require.NotContains(t, anonymous, "l like/unlike")
	require.NotContains(t, anonymous, "e edit")

	liker := formatPostDetail(post, "a2", renderer, theme)
	require.Contains(t, liker, "♥ 2 likes")
	require.Contains(t, liker, "l like/unlike")
	require.NotContains(t, liker, "e edit")

	owner := formatPostDetail(post, "a1", renderer, theme)
	require.Contains(t, owner, "e edit · d delete")
}

func TestFormatPlans(t *testing.T) {
	theme := GetTheme("light")

	free := formatPlans(store.Account{}, true, theme)
	for _, plan := range Plans {
		require.Contains(t, free, plan.Name)
	}
	require.Contains(t, free, "(recommended)")
	require.Contains(t, free, "Processing payment...")

	premium := formatPlans(store.Account{Premium: true}, false, theme)
	require.Contains(t, premium, "Premium Membership")
	require.Contains(t, premium, "Custom domain")
	require.NotContains(t, premium, "Processing payment...")
}

func TestSortedSocialLinks(t *testing.T) {
	platforms := sortedSocialLinks(map[string]string{"mastodon": "x", "bluesky": "y", "github": "z"})
	require.Equal(t, []string{"twitter", "linkedin", "github", "facebook", "instagram", "bluesky", "mastodon"}, platforms)
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "2m5s", formatDuration(2*time.Minute+5*time.Second))
	require.Equal(t, "1h30m", formatDuration(90*time.Minute))
}
