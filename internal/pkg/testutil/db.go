// Package testutil provides shared test fixtures for database-backed tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/internal/pkg/database"
)

// NewTestDB opens an in-memory sqlite database with the full schema applied.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// QueryCounter counts SELECT statements executed on a connection. Used to
// assert query-count properties like the zero-total short-circuit.
type QueryCounter struct {
	count int
}

// AttachQueryCounter registers a counting callback on the connection.
func AttachQueryCounter(t *testing.T, db *gorm.DB) *QueryCounter {
	t.Helper()

	qc := &QueryCounter{}
	err := db.Callback().Query().After("gorm:query").Register("testutil:count_queries", func(*gorm.DB) {
		qc.count++
	})
	if err != nil {
		t.Fatalf("register query counter: %v", err)
	}
	return qc
}

// Count returns the number of queries observed since the last reset.
func (qc *QueryCounter) Count() int {
	return qc.count
}

// Reset zeroes the counter.
func (qc *QueryCounter) Reset() {
	qc.count = 0
}

// SeedUser inserts a minimal user for tests.
func SeedUser(t *testing.T, db *gorm.DB, username string, level int) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.org",
		Password: "test-password-hash",
		Level:    level,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

// SeedAdmin inserts an admin user for tests.
func SeedAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	admin := SeedUser(t, db, username, 3)
	admin.IsAdmin = true
	if err := db.Save(admin).Error; err != nil {
		t.Fatalf("seed admin %s: %v", username, err)
	}
	return admin
}
