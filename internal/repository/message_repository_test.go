package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/barter-backend/internal/db/dbtest"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMarkReadOnce(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	a := dbtest.User(t, gdb, "a@example.com", "Alice")
	b := dbtest.User(t, gdb, "b@example.com", "Bob")

	repo := NewMessageRepository(gdb)
	m := &model.Message{FromUserID: a.ID, ToUserID: b.ID, Body: "hello"}
	require.NoError(t, repo.Create(ctx, m))

	flipped, err := repo.MarkRead(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.MarkRead(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, flipped)

	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	require.NotNil(t, got.Sender)
	require.NotNil(t, got.Recipient)
	assert.Equal(t, "Alice", got.Sender.Name)
	assert.Equal(t, "Bob", got.Recipient.Name)
}

func TestMessageInboxLists(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	a := dbtest.User(t, gdb, "a@example.com", "Alice")
	b := dbtest.User(t, gdb, "b@example.com", "Bob")
	c := dbtest.User(t, gdb, "c@example.com", "Carol")
	l := dbtest.Listing(t, gdb, &model.Listing{TradeWhat: "Bike", ForWhat: "Laptop", ByUserID: a.ID})

	repo := NewMessageRepository(gdb)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed := []*model.Message{
		{FromUserID: b.ID, ToUserID: a.ID, ListingID: uint64Ptr(l.ID), Body: "first", CreatedAt: base},
		{FromUserID: c.ID, ToUserID: a.ID, Body: "second", CreatedAt: base.Add(time.Minute)},
		{FromUserID: a.ID, ToUserID: b.ID, Body: "reply", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, m := range seed {
		require.NoError(t, repo.Create(ctx, m))
	}

	received, err := repo.ListReceived(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.Equal(t, "second", received[0].Body)
	assert.Equal(t, "Carol", received[0].Sender.Name)
	assert.Nil(t, received[0].Listing)
	assert.Equal(t, "first", received[1].Body)
	require.NotNil(t, received[1].Listing)
	assert.Equal(t, "Bike", received[1].Listing.TradeWhat)

	sent, err := repo.ListSent(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Bob", sent[0].Recipient.Name)

	unread, err := repo.CountUnread(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	_, err = repo.MarkRead(ctx, received[0].ID)
	require.NoError(t, err)
	unread, err = repo.CountUnread(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestCategoryUpsertAndLookup(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	repo := NewCategoryRepository(gdb)

	require.NoError(t, repo.Upsert(ctx, []model.Category{
		{Name: "Tools", Slug: "tools"},
		{Name: "Art", Slug: "art"},
	}))
	// Re-seeding is a no-op for existing slugs.
	require.NoError(t, repo.Upsert(ctx, []model.Category{
		{Name: "Art", Slug: "art"},
		{Name: "Books", Slug: "books"},
	}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Art", "Books", "Tools"}, names)

	c, err := repo.FindBySlug(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, "Books", c.Name)
}

func TestUserFirebaseLink(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	repo := NewUserRepository(gdb)
	u := dbtest.User(t, gdb, "a@example.com", "Alice")

	got, err := repo.FindByFirebaseUID(ctx, "fb-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	linked, err := repo.LinkFirebaseUID(ctx, u.ID, "fb-1")
	require.NoError(t, err)
	assert.True(t, linked)
	got, err = repo.FindByFirebaseUID(ctx, "fb-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	linked, err = repo.LinkFirebaseUID(ctx, u.ID, "fb-2")
	require.NoError(t, err)
	assert.False(t, linked, "an existing link is never replaced")
	got, err = repo.FindByFirebaseUID(ctx, "fb-2")
	require.NoError(t, err)
	assert.Nil(t, got)

	byEmail, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
