package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"statmatch/internal/fingerprint"
)

// Store manages fingerprint document persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the fingerprint database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Put inserts or replaces a fingerprint document.
func (s *Store) Put(ctx context.Context, id string, rawJSON []byte) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("fingerprint id is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fingerprints (id, raw_json, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET raw_json = excluded.raw_json, updated_at = excluded.updated_at`,
		id, string(rawJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("put fingerprint %s: %w", id, err)
	}
	return nil
}

// Lookup fetches and parses a fingerprint document by identifier. A missing
// document returns a nil Document and no error.
func (s *Store) Lookup(ctx context.Context, id string) (fingerprint.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT raw_json FROM fingerprints WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup fingerprint %s: %w", id, err)
	}
	doc, err := fingerprint.ParseDocument([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse fingerprint %s: %w", id, err)
	}
	return doc, nil
}

// CountExisting counts how many of the given identifiers exist. Identifiers
// arrive from JSON envelopes and may be typed as numbers or strings; the
// count is taken once with values bound as-is and once with every value
// cast to a string, and the larger count wins. This mirrors the tolerant
// verification behavior the result consumers rely on.
func (s *Store) CountExisting(ctx context.Context, ids []any) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	rawCount, err := s.countIn(ctx, ids)
	if err != nil {
		return 0, err
	}

	stringIDs := make([]any, len(ids))
	for i, id := range ids {
		stringIDs[i] = fmt.Sprintf("%v", id)
	}
	stringCount, err := s.countIn(ctx, stringIDs)
	if err != nil {
		return 0, err
	}

	if stringCount > rawCount {
		return stringCount, nil
	}
	return rawCount, nil
}

func (s *Store) countIn(ctx context.Context, ids []any) (int, error) {
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT COUNT(1) FROM fingerprints WHERE id IN (` + placeholders + `)`

	var count int
	if err := s.db.QueryRowContext(ctx, query, ids...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fingerprints: %w", err)
	}
	return count, nil
}

// Count returns the total number of stored fingerprints.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM fingerprints`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fingerprints: %w", err)
	}
	return count, nil
}

// ListIDs returns stored fingerprint identifiers in insertion-independent
// sorted order, capped at limit when limit is positive.
func (s *Store) ListIDs(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT id FROM fingerprints ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan fingerprint id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
