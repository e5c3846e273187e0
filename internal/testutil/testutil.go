// Package testutil provides database fixtures shared by the package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/whitedevilpython/hackathon-registration/internal/config"
	"github.com/whitedevilpython/hackathon-registration/internal/repositories"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteDSN returns a file-backed SQLite DSN inside dir. WAL mode and a busy
// timeout let concurrent writers queue on the write lock instead of failing.
func SQLiteDSN(dir string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", filepath.Join(dir, "test.db"))
}

// Config returns a configuration pointing at a fresh SQLite file.
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppPort:       ":0",
		DBDriver:      "sqlite",
		DSN:           SQLiteDSN(t.TempDir()),
		PublicBaseURL: "http://localhost:8080",
		PendingTTL:    config.DefaultPendingTTL,
	}
}

// NewDB opens and migrates a fresh SQLite database that is closed when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenDB(t, Config(t))
}

// OpenDB opens and migrates the database described by cfg.
func OpenDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := repositories.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.Logger = logger.Discard
	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
