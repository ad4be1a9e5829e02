package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertThread creates a new thread in status "discuss" (§3: "created →
// discuss").
func (s *Store) InsertThread(ctx context.Context, topic string, metadata map[string]any) (Thread, error) {
	if topic == "" {
		return Thread{}, fmt.Errorf("%w: topic must not be empty", ErrInvalidInput)
	}

	metaJSON, err := marshalMap(metadata)
	if err != nil {
		return Thread{}, fmt.Errorf("marshal metadata: %w", err)
	}

	t := Thread{
		ID:        uuid.New().String(),
		Topic:     topic,
		Status:    StatusDiscuss,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO threads (id, topic, status, prior_status, summary, metadata, created_at, updated_at)
			 VALUES (?, ?, ?, NULL, NULL, ?, ?, ?)`,
			t.ID, t.Topic, string(t.Status), metaJSON, t.CreatedAt, t.UpdatedAt)
		return err
	})
	if err != nil {
		return Thread{}, fmt.Errorf("insert thread: %w", err)
	}

	return t, nil
}

// FetchThread returns a thread by id, or ErrNotFound.
func (s *Store) FetchThread(ctx context.Context, id string) (Thread, error) {
	return s.fetchThread(ctx, s.db, id)
}

func (s *Store) fetchThread(ctx context.Context, q querier, id string) (Thread, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, topic, status, prior_status, summary, metadata, created_at, updated_at
		 FROM threads WHERE id = ?`, id)
	t, err := scanThread(row)
	if err != nil {
		return Thread{}, wrapNotFound(err)
	}
	return t, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanThread(row *sql.Row) (Thread, error) {
	var t Thread
	var status string
	var priorStatus, summary sql.NullString
	var metaJSON string
	if err := row.Scan(&t.ID, &t.Topic, &status, &priorStatus, &summary, &metaJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Thread{}, err
	}
	t.Status = ThreadStatus(status)
	t.PriorStatus = ThreadStatus(priorStatus.String)
	t.Summary = summary.String
	t.Metadata = unmarshalMap(metaJSON)
	return t, nil
}

// ListThreads lists threads, optionally filtered by status, optionally
// including archived ones.
func (s *Store) ListThreads(ctx context.Context, statusFilter ThreadStatus, includeArchived bool) ([]Thread, error) {
	query := `SELECT id, topic, status, prior_status, summary, metadata, created_at, updated_at FROM threads WHERE 1=1`
	var args []any

	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, string(statusFilter))
	}
	if !includeArchived {
		query += ` AND status != ?`
		args = append(args, string(StatusArchived))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		var t Thread
		var status string
		var priorStatus, summary sql.NullString
		var metaJSON string
		if err := rows.Scan(&t.ID, &t.Topic, &status, &priorStatus, &summary, &metaJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.Status = ThreadStatus(status)
		t.PriorStatus = ThreadStatus(priorStatus.String)
		t.Summary = summary.String
		t.Metadata = unmarshalMap(metaJSON)
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a thread between non-terminal statuses, or into
// closed. Rejects transitions out of closed or archived (those use
// dedicated operations).
func (s *Store) UpdateStatus(ctx context.Context, id string, newStatus ThreadStatus) error {
	if !newStatus.Valid() || newStatus == StatusArchived {
		return fmt.Errorf("%w: invalid target status %q", ErrInvalidInput, newStatus)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT status FROM threads WHERE id = ?`, id)
		var current string
		if err := row.Scan(&current); err != nil {
			return wrapNotFound(err)
		}
		cur := ThreadStatus(current)
		if cur.IsTerminal() || cur == StatusArchived {
			return fmt.Errorf("%w: thread %s is %s, cannot transition", ErrConflict, id, cur)
		}

		res, err := tx.ExecContext(ctx, `UPDATE threads SET status = ?, updated_at = ? WHERE id = ?`,
			string(newStatus), time.Now().UTC(), id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// Archive moves a thread to StatusArchived, preserving its prior status so
// Unarchive can restore it.
func (s *Store) Archive(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT status FROM threads WHERE id = ?`, id)
		var current string
		if err := row.Scan(&current); err != nil {
			return wrapNotFound(err)
		}
		if ThreadStatus(current) == StatusArchived {
			return nil // idempotent
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE threads SET prior_status = status, status = ?, updated_at = ? WHERE id = ?`,
			string(StatusArchived), time.Now().UTC(), id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// Unarchive restores a thread's pre-archive status (P5: archive round-trip).
func (s *Store) Unarchive(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT status, prior_status FROM threads WHERE id = ?`, id)
		var current string
		var prior sql.NullString
		if err := row.Scan(&current, &prior); err != nil {
			return wrapNotFound(err)
		}
		if ThreadStatus(current) != StatusArchived {
			return fmt.Errorf("%w: thread %s is not archived", ErrConflict, id)
		}

		restore := StatusDiscuss
		if prior.Valid && prior.String != "" {
			restore = ThreadStatus(prior.String)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE threads SET status = ?, prior_status = NULL, updated_at = ? WHERE id = ?`,
			string(restore), time.Now().UTC(), id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// Close sets a thread's status to closed and optionally records a summary.
func (s *Store) Close(ctx context.Context, id string, summary string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT status FROM threads WHERE id = ?`, id)
		var current string
		if err := row.Scan(&current); err != nil {
			return wrapNotFound(err)
		}
		if ThreadStatus(current).IsTerminal() {
			return fmt.Errorf("%w: thread %s already closed", ErrConflict, id)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE threads SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
			string(StatusClosed), summary, time.Now().UTC(), id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// Delete hard-deletes a thread and, via the ON DELETE CASCADE foreign key,
// all of its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
