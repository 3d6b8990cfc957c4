package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopAuthors(t *testing.T) {
	s := newTestStores(t, nil)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "a1"})
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, Draft{Title: "a2", Visibility: VisibilityPrivate})
	require.NoError(t, err)

	bob, err := s.users.Register(ctx, "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)
	b1, err := s.posts.CreatePost(ctx, Draft{Title: "b1"})
	require.NoError(t, err)
	_, err = s.posts.LikePost(ctx, b1.ID)
	require.NoError(t, err)

	_, err = s.users.Register(ctx, "Cid", "cid@x.com", "secret3")
	require.NoError(t, err)

	// Anonymous viewers only count public posts; Bob wins on likes
	ranked := TopAuthors(s.users, s.posts, "", 0)
	require.Len(t, ranked, 2)
	require.Equal(t, bob.ID, ranked[0].Account.ID)
	require.Equal(t, 1, ranked[0].Likes)
	require.Equal(t, "Ann", ranked[1].Account.Name)

	ann := s.posts.ListByOwner(ranked[1].Account.ID)[0].OwnerID
	ranked = TopAuthors(s.users, s.posts, ann, 1)
	require.Len(t, ranked, 1)
	require.Equal(t, "Ann", ranked[0].Account.Name)
	require.Equal(t, 2, ranked[0].PostCount)
}
