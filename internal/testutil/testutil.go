// Package testutil provides shared test helpers for setting up stores
// and seeded fixtures.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically
// cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedUser inserts a user subscribed to the given categories and
// returns its identity.
func SeedUser(t *testing.T, db *store.DB, email string, categories ...string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := db.UpsertUser(context.Background(), models.User{
		ID:         id,
		Email:      email,
		Name:       email,
		Categories: categories,
	}); err != nil {
		t.Fatal(err)
	}
	return id
}

// Articles returns a minimal single-article fixture.
func Articles() []models.Article {
	return []models.Article{
		{Title: "X", Summary: "Y", SourceName: "Z", OriginalURL: "http://example.org/x"},
	}
}
