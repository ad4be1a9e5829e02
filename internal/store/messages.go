package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertMessage assigns seq via the Sequencer (§4.2: next_seq = 1 +
// MAX(seq), computed and consumed inside the same transaction as the
// insert) and appends the message. Rejects if the thread does not exist.
func (s *Store) InsertMessage(ctx context.Context, threadID, authorID, authorName string, role Role, content string, mentions []string, metadata map[string]any) (Message, error) {
	if threadID == "" {
		return Message{}, fmt.Errorf("%w: thread_id must not be empty", ErrInvalidInput)
	}

	normalized := normalizeContent(content)

	mentionsJSON, err := marshalStrings(mentions)
	if err != nil {
		return Message{}, fmt.Errorf("marshal mentions: %w", err)
	}
	metaJSON, err := marshalMap(metadata)
	if err != nil {
		return Message{}, fmt.Errorf("marshal metadata: %w", err)
	}

	m := Message{
		ID:         uuid.New().String(),
		ThreadID:   threadID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Role:       role,
		Content:    normalized,
		Mentions:   mentions,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		row := tx.QueryRowContext(ctx, `SELECT status FROM threads WHERE id = ?`, threadID)
		if err := row.Scan(&status); err != nil {
			return wrapNotFound(err)
		}

		var maxSeq sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM messages`).Scan(&maxSeq); err != nil {
			return fmt.Errorf("compute next seq: %w", err)
		}
		m.Seq = maxSeq.Int64 + 1

		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, thread_id, seq, author_id, author_name, role, content, mentions, metadata, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ThreadID, m.Seq, m.AuthorID, m.AuthorName, string(m.Role), m.Content, mentionsJSON, metaJSON, m.CreatedAt)
		return err
	})
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}

	return m, nil
}

// ListMessages returns up to limit messages in threadID with seq >
// afterSeq, in ascending seq order. includeSystemPrompt=false filters out
// synthetic system-role rows.
func (s *Store) ListMessages(ctx context.Context, threadID string, afterSeq int64, limit int, includeSystemPrompt bool) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, thread_id, seq, author_id, author_name, role, content, mentions, metadata, created_at
	          FROM messages WHERE thread_id = ? AND seq > ?`
	args := []any{threadID, afterSeq}
	if !includeSystemPrompt {
		query += ` AND role != ?`
		args = append(args, string(RoleSystem))
	}
	query += ` ORDER BY seq ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessageRow(rows *sql.Rows) (Message, error) {
	var m Message
	var authorID, authorName sql.NullString
	var role string
	var mentionsJSON, metaJSON string
	if err := rows.Scan(&m.ID, &m.ThreadID, &m.Seq, &authorID, &authorName, &role, &m.Content, &mentionsJSON, &metaJSON, &m.CreatedAt); err != nil {
		return Message{}, err
	}
	m.AuthorID = authorID.String
	m.AuthorName = authorName.String
	m.Role = Role(role)
	m.Mentions = unmarshalStrings(mentionsJSON)
	m.Metadata = unmarshalMap(metaJSON)
	return m, nil
}
