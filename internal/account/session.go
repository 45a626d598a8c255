// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is proof of a successful login. Sessions have no expiry and are
// never revoked by this package.
type Session struct {
	ID     ulid.ULID
	UserID int64
	// Token is the plaintext bearer token. It is only set on the Session
	// returned by SessionManager.Create and by the validate paths, which
	// echo the presented token back.
	Token        string
	TokenHash    string
	UserAgent    string
	LastActivity time.Time
	LastLogin    time.Time

	// User is the owning account, loaded by the session manager.
	User *User
}

// HashSessionToken computes the SHA-256 hex digest under which a token is
// stored.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByUserAndTokenHash returns the session of userID with the given
	// token hash. Returns ErrNotFound if no row matches.
	GetByUserAndTokenHash(ctx context.Context, userID int64, tokenHash string) (*Session, error)

	// GetByTokenHash returns the session with the given token hash.
	// Returns ErrNotFound if no row matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// ListByUser returns all sessions of a user, newest login first.
	ListByUser(ctx context.Context, userID int64) ([]*Session, error)

	// Touch sets last_activity for one session. Returns ErrNotFound if the
	// session no longer exists.
	Touch(ctx context.Context, id ulid.ULID, at time.Time) error
}
