// Package testdb opens a migrated in-memory SQLite database for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/pkg/db"
)

// Open returns a fresh database seeded with the default table capacities.
// The pool is pinned to one connection so every query sees the same
// in-memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := db.Config()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repo.Migrate(context.Background(), gdb, models.DefaultCapacities); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return gdb
}
