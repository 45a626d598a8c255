// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

const sessionColumns = `id, user_id, token_hash, user_agent, last_activity, last_login`

// SessionRepository implements account.SessionRepository using PostgreSQL.
// Only the SHA-256 hash of a token is stored.
type SessionRepository struct {
	db DB
}

var _ account.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *account.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, last_activity, last_login)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		session.ID.String(),
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.LastActivity,
		session.LastLogin,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", session.UserID).
			Wrap(err)
	}
	return nil
}

// GetByUserAndTokenHash returns the session of userID with tokenHash.
func (r *SessionRepository) GetByUserAndTokenHash(ctx context.Context, userID int64, tokenHash string) (*account.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1 AND token_hash = $2
	`, userID, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("user_id", userID).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by user and token").
			With("user_id", userID).
			Wrap(err)
	}
	return session, nil
}

// GetByTokenHash returns the session with tokenHash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*account.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// ListByUser returns the sessions of a user, most recent login first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]*account.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1
		ORDER BY last_login DESC, id DESC
	`, userID)
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").
			With("operation", "list sessions").
			With("user_id", userID).
			Wrap(err)
	}
	defer rows.Close()

	var sessions []*account.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, oops.Code("SESSION_LIST_FAILED").
				With("operation", "scan session").
				With("user_id", userID).
				Wrap(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").
			With("operation", "iterate sessions").
			With("user_id", userID).
			Wrap(err)
	}
	return sessions, nil
}

// Touch sets last_activity for one session.
func (r *SessionRepository) Touch(ctx context.Context, id ulid.ULID, at time.Time) error {
	result, err := r.db.Exec(ctx, `UPDATE sessions SET last_activity = $2 WHERE id = $1`, id.String(), at)
	if err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "update last_activity").
			With("session_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("session_id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

func scanSession(row pgx.Row) (*account.Session, error) {
	var (
		s     account.Session
		idStr string
	)
	if err := row.Scan(&idStr, &s.UserID, &s.TokenHash, &s.UserAgent, &s.LastActivity, &s.LastLogin); err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	s.ID = id
	return &s, nil
}
