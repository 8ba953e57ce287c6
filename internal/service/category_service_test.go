package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shinyyama/barter-backend/internal/cache"
	"github.com/shinyyama/barter-backend/internal/db/dbtest"
	"github.com/shinyyama/barter-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCategorySeedAndResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.categories.Seed(ctx, DefaultCategories))
	require.NoError(t, f.categories.Seed(ctx, DefaultCategories), "seeding twice is a no-op")

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(DefaultCategories))

	tests := []struct {
		ref  string
		want string
	}{
		{"toys-and-games", "Toys & Games"},
		{"Home-Decor", "Home Decor"},
		{"sports-equipment", "Sports Equipment"},
	}
	for _, tt := range tests {
		c, err := f.categories.Resolve(ctx, tt.ref)
		require.NoError(t, err, tt.ref)
		assert.Equal(t, tt.want, c.Name)

		byID, err := f.categories.Resolve(ctx, fmtID(c.ID))
		require.NoError(t, err)
		assert.Equal(t, c.Name, byID.Name)
	}

	for _, ref := range []string{"", "  ", "nope", "99999"} {
		_, err := f.categories.Resolve(ctx, ref)
		assert.ErrorIs(t, err, ErrNotFound, ref)
	}
}

func TestCategoryListUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCategoryCache(mr.Addr(), "", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	gdb := dbtest.New(t)
	ctx := context.Background()
	svc := NewCategoryService(repository.NewCategoryRepository(gdb), c, zaptest.NewLogger(t))
	require.NoError(t, svc.Seed(ctx, []string{"Books", "Tools"}))

	cached, err := c.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 2)

	// Rows added behind the service's back are invisible until the cache expires.
	dbtest.Category(t, gdb, "Art", "art")
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	mr.FastForward(2 * time.Minute)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
