// Package dbtest provides migrated in-memory databases and fixtures for tests.
package dbtest

import (
	"testing"

	"github.com/shinyyama/barter-backend/internal/db"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func User(t *testing.T, gdb *gorm.DB, email, name string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: name}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func Category(t *testing.T, gdb *gorm.DB, name, slug string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Slug: slug}
	require.NoError(t, gdb.Create(c).Error)
	return c
}

func Listing(t *testing.T, gdb *gorm.DB, l *model.Listing) *model.Listing {
	t.Helper()
	if l.Status == "" {
		l.Status = model.ListingStatusAvailable
	}
	require.NoError(t, gdb.Omit("Owner", "Category").Create(l).Error)
	return l
}
