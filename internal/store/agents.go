package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertRegister creates a new agent row and issues a fresh opaque token
// (§4.5: register).
func (s *Store) UpsertRegister(ctx context.Context, name, ide, model string, capabilities map[string]any) (Agent, error) {
	token, err := newToken()
	if err != nil {
		return Agent{}, fmt.Errorf("generate token: %w", err)
	}

	capsJSON, err := marshalMap(capabilities)
	if err != nil {
		return Agent{}, fmt.Errorf("marshal capabilities: %w", err)
	}

	now := time.Now().UTC()
	a := Agent{
		ID:               uuid.New().String(),
		Name:             name,
		IDE:              ide,
		Model:            model,
		Capabilities:     capabilities,
		Token:            token,
		LastHeartbeatAt:  now,
		LastActivityAt:   now,
		LastActivityKind: "register",
		RegisteredAt:     now,
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO agents (id, name, ide, model, capabilities, token, last_heartbeat_at, last_activity_at, last_activity_kind, registered_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.IDE, a.Model, capsJSON, a.Token, a.LastHeartbeatAt, a.LastActivityAt, a.LastActivityKind, a.RegisteredAt)
		return err
	})
	if err != nil {
		return Agent{}, fmt.Errorf("register agent: %w", err)
	}

	return a, nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// TouchHeartbeat validates the token and updates last_heartbeat_at.
func (s *Store) TouchHeartbeat(ctx context.Context, id, token string) error {
	return s.withAuthorizedAgent(ctx, id, token, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE agents SET last_heartbeat_at = ? WHERE id = ?`, time.Now().UTC(), id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// TouchActivity records the agent's last activity timestamp/kind — used by
// the Wait Coordinator's presence-accounting side effect (§4.4) and by any
// other operation attributed to an agent.
func (s *Store) TouchActivity(ctx context.Context, id, kind string) error {
	if id == "" {
		return nil // unattributed calls (e.g. "human") have no agent row to touch
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE agents SET last_activity_at = ?, last_activity_kind = ? WHERE id = ?`,
			time.Now().UTC(), kind, id)
		return err
	})
}

// Unregister validates the token and removes the agent row.
func (s *Store) Unregister(ctx context.Context, id, token string) error {
	return s.withAuthorizedAgent(ctx, id, token, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

// withAuthorizedAgent runs fn inside a transaction after verifying the
// supplied token matches the stored one (§3: "token is mandatory on every
// mutating agent operation and MUST match the stored value").
func (s *Store) withAuthorizedAgent(ctx context.Context, id, token string, fn func(tx *sql.Tx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var stored string
		row := tx.QueryRowContext(ctx, `SELECT token FROM agents WHERE id = ?`, id)
		if err := row.Scan(&stored); err != nil {
			return wrapNotFound(err)
		}
		if stored != token {
			return ErrUnauthorized
		}
		return fn(tx)
	})
}

// Fetch returns an agent by id, or ErrNotFound.
func (s *Store) FetchAgent(ctx context.Context, id string) (Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, ide, model, capabilities, token, last_heartbeat_at, last_activity_at, last_activity_kind, registered_at
		 FROM agents WHERE id = ?`, id)
	a, err := scanAgent(row)
	if err != nil {
		return Agent{}, wrapNotFound(err)
	}
	return a, nil
}

// ListAgents returns every registered agent.
func (s *Store) ListAgents(ctx context.Context) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, ide, model, capabilities, token, last_heartbeat_at, last_activity_at, last_activity_kind, registered_at
		 FROM agents ORDER BY registered_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		a, err := scanAgentRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(row *sql.Row) (Agent, error) {
	var a Agent
	var name, ide, model, kind sql.NullString
	var capsJSON string
	var lastHB, lastAct sql.NullTime
	if err := row.Scan(&a.ID, &name, &ide, &model, &capsJSON, &a.Token, &lastHB, &lastAct, &kind, &a.RegisteredAt); err != nil {
		return Agent{}, err
	}
	a.Name, a.IDE, a.Model, a.LastActivityKind = name.String, ide.String, model.String, kind.String
	a.Capabilities = unmarshalMap(capsJSON)
	a.LastHeartbeatAt = lastHB.Time
	a.LastActivityAt = lastAct.Time
	return a, nil
}

func scanAgentRows(rows *sql.Rows) (Agent, error) {
	var a Agent
	var name, ide, model, kind sql.NullString
	var capsJSON string
	var lastHB, lastAct sql.NullTime
	if err := rows.Scan(&a.ID, &name, &ide, &model, &capsJSON, &a.Token, &lastHB, &lastAct, &kind, &a.RegisteredAt); err != nil {
		return Agent{}, err
	}
	a.Name, a.IDE, a.Model, a.LastActivityKind = name.String, ide.String, model.String, kind.String
	a.Capabilities = unmarshalMap(capsJSON)
	a.LastHeartbeatAt = lastHB.Time
	a.LastActivityAt = lastAct.Time
	return a, nil
}
