package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Store is the single authoritative serialization point for threads,
// messages, and agents (§4.1). All mutating operations run inside a single
// transaction so the sequence assignment, the row insert, and (by the
// caller, after Commit) the event publication are atomic from an
// observer's standpoint.
type Store struct {
	db *sql.DB
}

// New wraps an already-open, already-migrated *sql.DB.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// withTx runs fn inside a transaction, retrying on SQLITE_BUSY/SQLITE_LOCKED
// with bounded exponential backoff — even with SetMaxOpenConns(1) on the
// pool, goose migrations or a concurrent reader can momentarily hold the
// file lock at the OS level.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	op := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("begin tx: %w", err))
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if isBusyErr(err) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			if isBusyErr(err) {
				return err
			}
			return backoff.Permanent(fmt.Errorf("commit tx: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func isBusyErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}

func marshalMap(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}

func marshalStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return nil
	}
	return ss
}

func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
