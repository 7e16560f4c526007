// Package repotest builds throwaway stores for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ecoshop/internal/repo"
	pkgdb "github.com/Skotchmaster/ecoshop/pkg/db"
)

// NewSQLite returns a migrated GormRepo on a private in-memory database.
func NewSQLite(t testing.TB) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), pkgdb.Config())
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	r := repo.NewGormRepo(db)
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return r
}
