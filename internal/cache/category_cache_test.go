package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCategoryCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisCategoryCacheFromClient(client, time.Minute)
	ctx := context.Background()

	got, err := c.GetCategories(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := []model.Category{{ID: 1, Name: "Art", Slug: "art"}, {ID: 2, Name: "Books", Slug: "books"}}
	require.NoError(t, c.SetCategories(ctx, want))

	got, err = c.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	srv.FastForward(2 * time.Minute)
	got, err = c.GetCategories(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisCategoryCachePingFails(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()
	_, err := NewRedisCategoryCache(addr, "", time.Minute)
	assert.Error(t, err)
}

func TestNopCategoryCache(t *testing.T) {
	var c CategoryCache = NopCategoryCache{}
	require.NoError(t, c.SetCategories(context.Background(), []model.Category{{Name: "Art"}}))
	got, err := c.GetCategories(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}
