package main

import (
	"context"
	"testing"

	"github.com/shinyyama/barter-backend/internal/db/dbtest"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSeedIsRepeatable(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	require.NoError(t, seed(ctx, gdb, "password", false, log))
	require.NoError(t, seed(ctx, gdb, "password", false, log))

	var categories, users, listings int64
	require.NoError(t, gdb.Model(&model.Category{}).Count(&categories).Error)
	require.NoError(t, gdb.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, gdb.Model(&model.Listing{}).Count(&listings).Error)
	assert.Equal(t, int64(13), categories)
	assert.Equal(t, int64(len(seedUsers)), users)
	assert.Equal(t, int64(len(seedListings)), listings)

	var admin model.User
	require.NoError(t, gdb.Where("email = ?", "test@example.com").First(&admin).Error)
	assert.True(t, admin.IsAdmin)

	var status []string
	require.NoError(t, gdb.Model(&model.Listing{}).Distinct().Pluck("status", &status).Error)
	assert.Equal(t, []string{"available"}, status)

	require.NoError(t, seed(ctx, gdb, "password", true, log))
	require.NoError(t, gdb.Model(&model.Listing{}).Count(&listings).Error)
	assert.Equal(t, int64(2*len(seedListings)), listings)
}
