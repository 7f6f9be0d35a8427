package store

import "database/sql"

// Migrations is the full schema history for the Pathways database.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "create listings and auth_users tables",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE listings (
					id            TEXT PRIMARY KEY,
					kind          TEXT NOT NULL,
					title         TEXT NOT NULL,
					description   TEXT NOT NULL DEFAULT '',
					organization  TEXT NOT NULL DEFAULT '',
					url           TEXT NOT NULL DEFAULT '',
					contact_email TEXT NOT NULL DEFAULT '',
					category      TEXT NOT NULL DEFAULT '',
					tags          TEXT NOT NULL DEFAULT '[]',
					amount        TEXT NOT NULL DEFAULT '',
					amount_min    REAL,
					amount_max    REAL,
					deadline      DATETIME,
					eligibility   TEXT NOT NULL DEFAULT '',
					created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					deleted_at    DATETIME
				)`,
				`CREATE INDEX idx_listings_kind ON listings(kind)`,
				`CREATE INDEX idx_listings_deadline ON listings(deadline)`,
				`CREATE INDEX idx_listings_created_at ON listings(created_at)`,
				`CREATE INDEX idx_listings_deleted_at ON listings(deleted_at)`,
				`CREATE TABLE auth_users (
					id            TEXT PRIMARY KEY,
					username      TEXT NOT NULL UNIQUE,
					email         TEXT NOT NULL DEFAULT '',
					password_hash TEXT NOT NULL,
					role          TEXT NOT NULL DEFAULT 'admin',
					created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					last_login    DATETIME,
					disabled      INTEGER NOT NULL DEFAULT 0
				)`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "create listings_fts full-text index and sync triggers",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				// Standalone FTS table (not external-content): listings uses
				// TEXT primary keys, so rows are mirrored by triggers instead.
				`CREATE VIRTUAL TABLE listings_fts USING fts5(
					id UNINDEXED,
					kind UNINDEXED,
					title,
					description,
					tags
				)`,
				`CREATE TRIGGER listings_fts_insert AFTER INSERT ON listings BEGIN
					INSERT INTO listings_fts (id, kind, title, description, tags)
					VALUES (new.id, new.kind, new.title, new.description, new.tags);
				END`,
				`CREATE TRIGGER listings_fts_update AFTER UPDATE ON listings BEGIN
					DELETE FROM listings_fts WHERE id = old.id;
					INSERT INTO listings_fts (id, kind, title, description, tags)
					VALUES (new.id, new.kind, new.title, new.description, new.tags);
				END`,
				`CREATE TRIGGER listings_fts_delete AFTER DELETE ON listings BEGIN
					DELETE FROM listings_fts WHERE id = old.id;
				END`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}
