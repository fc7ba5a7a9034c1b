// Package journal keeps a SQLite history of mutating library operations.
// The catalogue never reads it; it exists so a user can see what was done to
// a library and when.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 1
)

// Journal is an open history database
type Journal struct {
	db *sql.DB
}

// Entry is one recorded operation
type Entry struct {
	ID          string
	Kind        string // "ingest", "delete", "edit", "compact", "playlist-create", ...
	Library     string
	Args        string
	StartedAt   time.Time
	CompletedAt time.Time
	SummaryJSON string
	Error       string
}

// OK reports whether the operation succeeded
func (e *Entry) OK() bool {
	return e.Error == ""
}

// Open opens or creates the journal database at path
func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}
	return j, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	version, err := j.getSchemaVersion()
	if err != nil {
		return err
	}
	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

func (j *Journal) getSchemaVersion() (int, error) {
	var exists int
	err := j.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	err = j.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}

// Begin starts an entry for an operation. It is not stored until Finish.
func Begin(kind, library, args string) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Library:   library,
		Args:      args,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the entry with its outcome and stores it. summary is
// encoded as JSON; opErr is the operation's error, if any.
func (j *Journal) Finish(e *Entry, summary interface{}, opErr error) error {
	e.CompletedAt = time.Now().UTC()
	if summary != nil {
		data, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		e.SummaryJSON = string(data)
	}
	if opErr != nil {
		e.Error = opErr.Error()
	}

	_, err := j.db.Exec(`
		INSERT INTO operations
		(id, kind, library, args, started_at, completed_at, summary_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Kind, e.Library, e.Args, e.StartedAt, e.CompletedAt, e.SummaryJSON, e.Error)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for a library, newest first. An empty
// library returns entries for every library.
func (j *Journal) Recent(library string, limit int) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, kind, library, COALESCE(args, ''), started_at, completed_at,
		       COALESCE(summary_json, ''), COALESCE(error, '')
		FROM operations
		WHERE ? = '' OR library = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, library, library, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Library, &e.Args, &e.StartedAt, &e.CompletedAt, &e.SummaryJSON, &e.Error); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Get returns one entry by id, or nil if there is none
func (j *Journal) Get(id string) (*Entry, error) {
	var e Entry
	err := j.db.QueryRow(`
		SELECT id, kind, library, COALESCE(args, ''), started_at, completed_at,
		       COALESCE(summary_json, ''), COALESCE(error, '')
		FROM operations
		WHERE id = ?
	`, id).Scan(&e.ID, &e.Kind, &e.Library, &e.Args, &e.StartedAt, &e.CompletedAt, &e.SummaryJSON, &e.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CountByKind returns how many operations of each kind were recorded for a
// library
func (j *Journal) CountByKind(library string) (map[string]int, error) {
	rows, err := j.db.Query(`
		SELECT kind, COUNT(*) FROM operations
		WHERE library = ?
		GROUP BY kind
	`, library)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
