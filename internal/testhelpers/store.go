// Package testhelpers provides in-process stores for package tests.
//
// NewDB opens a private in-memory SQLite database through the pure-Go
// glebarez driver and migrates both the chat tables and the read-only
// directory tables. NewRedis starts a miniredis server and returns a
// go-redis client pointed at it. Both are torn down by t.Cleanup.
package testhelpers

import (
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/database"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database limited to one connection,
// so concurrent callers serialize instead of hitting SQLITE_LOCKED.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Branch{}, &model.MissionalCommunity{}))
	return db
}

// NewRedis returns a client backed by a fresh miniredis instance.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// Seed inserts directory rows.
func Seed(t testing.TB, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

func Ptr[T any](v T) *T {
	return &v
}
