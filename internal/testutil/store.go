package testutil

import (
	"context"
	"testing"

	"github.com/nativeways/pathways/internal/store"
)

// NewStore creates an in-memory SQLiteStore with the full schema applied.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), store.Migrations); err != nil {
		t.Fatalf("testutil.NewStore migrate: %v", err)
	}
	return db
}
