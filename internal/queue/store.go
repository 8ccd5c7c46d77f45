package queue

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
)

// Store manages message persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the message database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure queue directory: %w", err)
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

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Publish appends a message to the named queue. The message becomes
// immediately visible to consumers.
func (s *Store) Publish(ctx context.Context, queueName string, body []byte) (int64, error) {
	if strings.TrimSpace(queueName) == "" {
		return 0, errors.New("queue name is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO messages (queue, body, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		queueName, body, string(StatusPending), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("publish to %s: %w", queueName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("publish to %s: %w", queueName, err)
	}
	return id, nil
}

// Next claims the oldest pending message in the named queue, marking it
// processing. It returns nil when the queue is empty or another message is
// already in flight; consumers run with a single unacknowledged message at
// a time.
func (s *Store) Next(ctx context.Context, queueName string) (*Message, error) {
	ctx = ensureContext(ctx)

	var msg *Message
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var inFlight int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM messages WHERE queue = ? AND status = ?`,
			queueName, string(StatusProcessing),
		).Scan(&inFlight); err != nil {
			return err
		}
		if inFlight > 0 {
			msg = nil
			return tx.Commit()
		}

		row := tx.QueryRowContext(ctx,
			`SELECT id, queue, body, status, error_message, created_at, updated_at
             FROM messages WHERE queue = ? AND status = ? ORDER BY id LIMIT 1`,
			queueName, string(StatusPending),
		)
		candidate, scanErr := scanMessage(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			msg = nil
			return tx.Commit()
		}
		if scanErr != nil {
			return scanErr
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE messages SET status = ?, updated_at = ? WHERE id = ?`,
			string(StatusProcessing), now.Format(time.RFC3339Nano), candidate.ID,
		); err != nil {
			return err
		}
		candidate.Status = StatusProcessing
		candidate.UpdatedAt = now
		msg = candidate
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("claim next from %s: %w", queueName, err)
	}
	return msg, nil
}

// Ack marks a processing message as successfully handled.
func (s *Store) Ack(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusDone, "")
}

// Discard marks a processing message as dead. Dead messages are never
// redelivered; the reason is retained for inspection.
func (s *Store) Discard(ctx context.Context, id int64, reason string) error {
	return s.finish(ctx, id, StatusDead, reason)
}

// Release returns a processing message to pending so it is redelivered.
// Used when handling failed for a transient reason.
func (s *Store) Release(ctx context.Context, id int64, reason string) error {
	return s.finish(ctx, id, StatusPending, reason)
}

func (s *Store) finish(ctx context.Context, id int64, status Status, reason string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE messages SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(status), reason, time.Now().UTC().Format(time.RFC3339Nano), id, string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("finish message %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish message %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("finish message %d: message is not processing", id)
	}
	return nil
}

// ReclaimStale marks processing messages older than the cutoff as dead.
// A message stuck in processing means a consumer died mid-handling; since
// handlers are not idempotent the message is not requeued. Returns the
// number of messages reclaimed.
func (s *Store) ReclaimStale(ctx context.Context, queueName string, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE messages SET status = ?, error_message = ?, updated_at = ?
         WHERE queue = ? AND status = ? AND updated_at < ?`,
		string(StatusDead), "reclaimed after consumer stall",
		time.Now().UTC().Format(time.RFC3339Nano),
		queueName, string(StatusProcessing), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale in %s: %w", queueName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reclaim stale in %s: %w", queueName, err)
	}
	return affected, nil
}

// Peek returns up to limit messages from the named queue ordered oldest
// first, without claiming them.
func (s *Store) Peek(ctx context.Context, queueName string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, queue, body, status, error_message, created_at, updated_at
         FROM messages WHERE queue = ? ORDER BY id LIMIT ?`,
		queueName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("peek %s: %w", queueName, err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("peek %s: %w", queueName, err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Health aggregates message counts per lifecycle state for the named queue.
func (s *Store) Health(ctx context.Context, queueName string) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM messages WHERE queue = ? GROUP BY status`,
		queueName,
	)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("queue health %s: %w", queueName, err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("queue health %s: %w", queueName, err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending = count
		case StatusProcessing:
			summary.Processing = count
		case StatusDone:
			summary.Done = count
		case StatusDead:
			summary.Dead = count
		}
	}
	return summary, rows.Err()
}

// Purge removes terminal messages from the named queue and returns how many
// were deleted.
func (s *Store) Purge(ctx context.Context, queueName string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM messages WHERE queue = ? AND status IN (?, ?)`,
		queueName, string(StatusDone), string(StatusDead),
	)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", queueName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", queueName, err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var (
		msg       Message
		status    string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&msg.ID, &msg.Queue, &msg.Body, &status, &msg.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	msg.Status = Status(status)
	msg.CreatedAt = parseTimestamp(createdAt)
	msg.UpdatedAt = parseTimestamp(updatedAt)
	return &msg, nil
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	return time.Time{}
}
