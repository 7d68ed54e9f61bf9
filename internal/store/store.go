// Package store implements the Manifold Store (SPEC_FULL.md §4.B): a
// single-node SQLite, WAL-mode, append-only persistence layer for manifold
// snapshots, agent messages, and episodes, grounded on the teacher's
// internal/store/local_core.go connection-bootstrap pattern and
// internal/store/local_session.go idempotent-insert pattern.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"forge/internal/logging"
)

// ManifoldStore is the single-writer, multi-reader persistence layer.
// All writes go through one connection guarded by mu; WAL mode lets
// independent reader connections observe committed snapshots without
// blocking the writer.
type ManifoldStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open initializes (or reopens) a Manifold Store at path, applying the
// PRAGMA sequence and idempotent schema from spec.md §6: journal_mode=WAL,
// synchronous=NORMAL, foreign_keys=ON, busy_timeout=5000.
func Open(path string) (*ManifoldStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Get(logging.CategoryStore).Warn("pragma failed: %s: %v", pragma, err)
		}
	}

	s := &ManifoldStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *ManifoldStore) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS manifold_snapshots (
			version INTEGER PRIMARY KEY AUTOINCREMENT,
			integrity_hash TEXT NOT NULL,
			payload TEXT NOT NULL,
			saved_at_ms INTEGER NOT NULL,
			agent_id TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS agent_messages (
			id TEXT PRIMARY KEY,
			from_agent TEXT NOT NULL,
			to_agent TEXT,
			type TEXT NOT NULL,
			payload TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			session_id TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agent_messages_session ON agent_messages(session_id);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			agent_id TEXT,
			event_type TEXT NOT NULL,
			description TEXT NOT NULL,
			outcome TEXT,
			importance REAL DEFAULT 0,
			payload TEXT,
			timestamp_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_agent ON episodes(agent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_type ON episodes(event_type);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *ManifoldStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for read-only independent queries.
func (s *ManifoldStore) DB() *sql.DB {
	return s.db
}
