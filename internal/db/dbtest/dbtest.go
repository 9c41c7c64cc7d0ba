// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"leadsite/internal/db"
	"leadsite/internal/session"
)

// Open returns a migrated, empty in-memory SQLite database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

// Sessions returns a session manager with a fixed test secret.
func Sessions(t testing.TB) *session.Manager {
	t.Helper()
	m, err := session.NewManager("dbtest-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return m
}

// Gateway returns a GormGateway over a fresh database.
func Gateway(t testing.TB) *db.GormGateway {
	t.Helper()
	return db.NewGateway(Open(t), Sessions(t))
}
