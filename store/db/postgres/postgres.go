// Package postgres implements the store driver over PostgreSQL,
// including the pgvector-backed reference embedding cache.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/solace/internal/profile"
	"github.com/hrygo/solace/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile

	// vectorReady is set when the pgvector extension installed cleanly.
	vectorReady bool
}

// NewDB opens a PostgreSQL database using the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	return &DB{db: postgresDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS memory_entry (
		id SERIAL PRIMARY KEY,
		uid TEXT NOT NULL DEFAULT '',
		input TEXT NOT NULL,
		response TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_entry_input ON memory_entry (input)`,
	`CREATE TABLE IF NOT EXISTS transcript (
		id SERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcript_session_id ON transcript (session_id)`,
}

// vectorMigrations require the pgvector extension. The dimension matches
// the embedding provider default.
var vectorMigrations = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS reference_embedding (
		question TEXT PRIMARY KEY,
		embedding vector(1024) NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
}

func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to run migration")
		}
	}

	// pgvector is optional: without it the embedding cache simply stays
	// in memory.
	for _, stmt := range vectorMigrations {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			slog.Warn("postgres: pgvector unavailable, reference embedding cache disabled", "error", err)
			return nil
		}
	}
	d.vectorReady = true
	return nil
}
