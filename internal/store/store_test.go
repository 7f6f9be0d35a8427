package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Migrate(ctx, Migrations); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	// Running the same history again must be a no-op, not a re-apply.
	if err := s.Migrate(ctx, Migrations); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != len(Migrations) {
		t.Errorf("applied migrations = %d, want %d", n, len(Migrations))
	}
}

func TestMigrateRollsBackFailedMigration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := []Migration{
		{
			Version:     1,
			Description: "creates a table then fails",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec(`CREATE TABLE half_done (id TEXT)`); err != nil {
					return err
				}
				return errors.New("deliberate failure")
			},
		},
	}

	if err := s.Migrate(ctx, bad); err == nil {
		t.Fatal("failed migration should surface an error")
	}

	// The partial table must not survive the rollback.
	var name string
	err := s.DB().QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='half_done'`,
	).Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("half_done table survived rollback (err = %v)", err)
	}
}

func TestTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.DB().Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO t (id) VALUES (1)`); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("Tx should propagate the callback error")
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rows after rollback = %d, want 0", n)
	}

	if err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO t (id) VALUES (2)`)
		return err
	}); err != nil {
		t.Fatalf("Tx commit: %v", err)
	}
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows after commit = %d, want 1", n)
	}
}
