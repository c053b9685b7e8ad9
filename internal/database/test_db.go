package database

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database private to tb.
func NewTestDB(tb testing.TB) *DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		tb.Fatalf("failed to connect test database: %v", err)
	}
	rawDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("failed to get test database handle: %v", err)
	}
	rawDB.SetMaxOpenConns(1)

	db := New(gdb)
	if err := db.AddDatabaseTables(); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}
