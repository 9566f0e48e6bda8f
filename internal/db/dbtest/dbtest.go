// Package dbtest opens throwaway SQLite databases that go through the same
// migration path as production.
package dbtest

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/db"
)

// Open returns a migrated in-memory database with foreign keys enforced.
// The pool is pinned to one connection so every query sees the same
// in-memory file.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(sqlite.Open("file::memory:?_foreign_keys=on"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// SeedUser inserts a user and returns it.
func SeedUser(t testing.TB, gdb *gorm.DB, email string) *db.User {
	t.Helper()
	u := &db.User{Email: email, Name: email, PasswordHash: "x", Role: "user"}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProject inserts a project owned by createdBy and returns it.
func SeedProject(t testing.TB, gdb *gorm.DB, name, createdBy string) *db.Project {
	t.Helper()
	p := &db.Project{Name: name, CreatedBy: createdBy}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}
