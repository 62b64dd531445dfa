// Package store persists war room state to SQLite: officer definitions,
// channels, manual notes, and mission history with per-officer responses.
// It is the durable side of officer memory; the in-request side lives in
// internal/memory.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Text caps applied once at write time. Truncation is silent and irreversible.
const (
	BriefCap    = 1000
	ResponseCap = 2000
)

// Store wraps the SQLite database. Safe for concurrent use; SQLite handles
// one writer at a time, so the connection pool is kept at a single conn.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger
}

// Open initializes the database at path, creating directories and schema as
// needed. Use ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("set busy_timeout failed", zap.Error(err))
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logger.Debug("set journal_mode=WAL failed", zap.Error(err))
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.Debug("set foreign_keys failed", zap.Error(err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS officers (
			officer_id   TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			model        TEXT NOT NULL,
			capability_class TEXT NOT NULL,
			specialty    TEXT NOT NULL,
			system_prompt TEXT NOT NULL,
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS channels (
			channel_id   INTEGER PRIMARY KEY,
			channel_name TEXT NOT NULL,
			guild_id     INTEGER NOT NULL,
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS manual_notes (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			officer_id   TEXT NOT NULL,
			channel_id   INTEGER NOT NULL,
			note_content TEXT NOT NULL,
			created_by_user_id INTEGER NOT NULL,
			is_pinned    INTEGER NOT NULL DEFAULT 0,
			created_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_manual_notes
			ON manual_notes(officer_id, channel_id, is_pinned)`,
		`CREATE TABLE IF NOT EXISTS mission_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			dispatch_id  TEXT NOT NULL,
			channel_id   INTEGER NOT NULL,
			mission_brief TEXT NOT NULL,
			user_id      INTEGER NOT NULL,
			capability_class_filter TEXT,
			metadata     TEXT,
			started_at   TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mission_channel
			ON mission_history(channel_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS mission_officer_response (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			mission_id   INTEGER NOT NULL REFERENCES mission_history(id),
			officer_id   TEXT NOT NULL,
			response_content TEXT NOT NULL,
			tokens_used  INTEGER,
			success      INTEGER NOT NULL,
			error_message TEXT,
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mission_responses
			ON mission_officer_response(mission_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// EnsureChannel records the channel if it has not been seen before.
func (s *Store) EnsureChannel(ctx context.Context, channelID int64, name string, guildID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel_id, channel_name, guild_id) VALUES (?, ?, ?)
		 ON CONFLICT(channel_id) DO NOTHING`,
		channelID, name, guildID)
	if err != nil {
		return fmt.Errorf("ensure channel: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
