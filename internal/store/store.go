// Package store handles SQLite persistence.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrNotFound is returned by lookups that require a row, such as certificate codes.
	ErrNotFound = errors.New("store: not found")
	// ErrVersionConflict is returned when lesson progress changed since it was read.
	ErrVersionConflict = errors.New("store: lesson progress version conflict")
	// ErrCertificateExists is returned when the user already holds a certificate.
	ErrCertificateExists = errors.New("store: certificate already exists for user")
	// ErrCodeTaken is returned when a certificate code is already in use.
	ErrCodeTaken = errors.New("store: certificate code already taken")
	// ErrEmptyName is returned when logging in without a profile name.
	ErrEmptyName = errors.New("store: empty profile name")
)

// timeLayout keeps a fixed fraction width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for profiles, lesson progress, test results and certificates.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS active_user (
			slot INTEGER PRIMARY KEY CHECK (slot = 1),
			user_id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lesson_progress (
			user_id TEXT NOT NULL,
			lesson_id INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			completed_tasks TEXT NOT NULL,
			best_net_wpm INTEGER NOT NULL,
			best_accuracy REAL NOT NULL,
			version INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, lesson_id)
		);`,
		`CREATE TABLE IF NOT EXISTS lesson_task_scores (
			user_id TEXT NOT NULL,
			lesson_id INTEGER NOT NULL,
			task_index INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			user_input TEXT NOT NULL,
			PRIMARY KEY (user_id, lesson_id, task_index)
		);`,
		`CREATE TABLE IF NOT EXISTS test_results (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			gross_wpm INTEGER NOT NULL,
			net_wpm INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			errors INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS certificates (
			code TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			net_wpm INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			duration_seconds INTEGER NOT NULL,
			issued_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_test_results_user ON test_results(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_test_results_qualifying ON test_results(user_id, duration_seconds, net_wpm, accuracy);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on column.
// The column is given as "table.column", matching the SQLite error text.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func rollback(tx *sql.Tx) {
	if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
		// Best-effort rollback.
		_ = rerr
	}
}
