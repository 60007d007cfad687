package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Config{
		Driver: "sqlite3",
		DSN:    ":memory:?_foreign_keys=on",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, s *Store, name string) *User {
	t.Helper()
	u := &User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	author := createUser(t, s, "alice")

	post := &Post{Title: "Hi", Content: "World", UserID: author.ID}
	require.NoError(t, s.CreatePost(ctx, post))
	require.NotZero(t, post.ID)
	require.False(t, post.DatePosted.IsZero())

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Title)
	assert.Equal(t, "alice", got.Author.Username)
	assert.True(t, got.IsAuthoredBy(author))

	got.Title = "Hi2"
	got.Content = "World2"
	require.NoError(t, s.UpdatePost(ctx, got))

	updated, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi2", updated.Title)
	assert.Equal(t, "World2", updated.Content)
	assert.Equal(t, author.ID, updated.UserID)
	assert.True(t, updated.DatePosted.Equal(got.DatePosted))

	require.NoError(t, s.DeletePost(ctx, post.ID))
	_, err = s.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), ErrNotFound)
}

func TestUpdateIgnoresAuthorAndDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	post := &Post{Title: "t", Content: "c", UserID: alice.ID}
	require.NoError(t, s.CreatePost(ctx, post))
	original := post.DatePosted

	post.UserID = bob.ID
	post.DatePosted = original.AddDate(-1, 0, 0)
	post.Title = "t2"
	require.NoError(t, s.UpdatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, "t2", got.Title)
	assert.True(t, got.DatePosted.Equal(original))
}

func TestBlankPostsAreRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	author := createUser(t, s, "alice")

	for _, p := range []*Post{
		{Title: "", Content: "c", UserID: author.ID},
		{Title: "t", Content: "", UserID: author.ID},
		{Title: "  ", Content: "c", UserID: author.ID},
	} {
		assert.ErrorIs(t, s.CreatePost(ctx, p), ErrInvalidPost)
	}

	page, err := s.ListPosts(ctx, 1, 5)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestListPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	for i := 1; i <= 12; i++ {
		author := alice
		if i%3 == 0 {
			author = bob
		}
		p := &Post{Title: fmt.Sprintf("post %d", i), Content: "body", UserID: author.ID}
		require.NoError(t, s.CreatePost(ctx, p))
	}

	first, err := s.ListPosts(ctx, 1, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 12, first.Total)
	assert.Equal(t, 3, first.Pages)
	require.Len(t, first.Items, 5)
	for i, p := range first.Items {
		assert.Equal(t, fmt.Sprintf("post %d", 12-i), p.Title)
		assert.NotEmpty(t, p.Author.Username)
	}
	assert.False(t, first.HasPrev())
	assert.True(t, first.HasNext())

	last, err := s.ListPosts(ctx, 3, 5)
	require.NoError(t, err)
	require.Len(t, last.Items, 2)
	assert.Equal(t, "post 1", last.Items[1].Title)
	assert.False(t, last.HasNext())

	_, err = s.ListPosts(ctx, 4, 5)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = s.ListPosts(ctx, 0, 5)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	bobs, err := s.ListPostsByAuthor(ctx, bob.ID, 1, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 4, bobs.Total)
	assert.Equal(t, "post 12", bobs.Items[0].Title)
	for _, p := range bobs.Items {
		assert.Equal(t, bob.ID, p.UserID)
	}
}

func TestListPostsEmpty(t *testing.T) {
	s := newTestStore(t)

	page, err := s.ListPosts(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Pages)
	assert.Empty(t, page.IterPages(1, 1, 2, 1))
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &User{Username: "alice", Email: "other@example.com", Password: "x"}
	assert.Error(t, s.CreateUser(ctx, dup))
}
