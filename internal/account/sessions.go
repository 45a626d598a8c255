// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified when the username does not exist so that
// response time does not reveal whether an account exists. It never matches
// any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// SessionManager creates, validates and refreshes session tokens.
type SessionManager struct {
	store       Store
	hasher      PasswordHasher
	tokens      TokenSource
	tokenLength int
	now         func() time.Time
	logger      *slog.Logger
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithTokenLength sets the session token length. Non-positive values are
// ignored.
func WithTokenLength(n int) SessionOption {
	return func(m *SessionManager) {
		if n > 0 {
			m.tokenLength = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSessionLogger sets the logger used for best-effort failures.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(store Store, hasher PasswordHasher, tokens TokenSource, opts ...SessionOption) (*SessionManager, error) {
	if store == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("store is required")
	}
	if hasher == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("token source is required")
	}
	m := &SessionManager{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		tokenLength: DefaultTokenLength,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create authenticates username and password and opens a new session.
// Empty input, an unknown user and a wrong password all return
// ErrInvalidCredentials. The session insert and the date_login update commit
// together.
func (m *SessionManager) Create(ctx context.Context, username, password, userAgent string) (*Session, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, lookupErr := m.store.Repos().Users.GetByUsername(ctx, username)

	var targetHash string
	userExists := lookupErr == nil
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = dummyPasswordHash
	default:
		return nil, databaseError(oops.Code("LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr))
	}

	// Always verify, even for unknown users, to keep timing constant.
	valid, verifyErr := m.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, ErrInvalidCredentials
		}
		return nil, databaseError(oops.Code("LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr))
	}
	if !userExists || !valid {
		return nil, ErrInvalidCredentials
	}

	if m.hasher.NeedsUpgrade(user.PasswordHash) {
		m.upgradeHash(ctx, user, password)
	}

	token, err := m.tokens.String(m.tokenLength)
	if err != nil {
		return nil, databaseError(oops.Code("LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err))
	}

	now := m.now()
	session := &Session{
		ID:           ulid.Make(),
		UserID:       user.ID,
		Token:        token,
		TokenHash:    HashSessionToken(token),
		UserAgent:    userAgent,
		LastActivity: now,
		LastLogin:    now,
	}

	err = m.store.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Sessions.Create(ctx, session); err != nil {
			return oops.Code("LOGIN_FAILED").
				With("operation", "insert session").
				With("user_id", user.ID).
				Wrap(err)
		}
		if err := repos.Users.TouchLogin(ctx, user.ID, now); err != nil {
			return oops.Code("LOGIN_FAILED").
				With("operation", "update date_login").
				With("user_id", user.ID).
				Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, databaseError(err)
	}

	user.DateLogin = &now
	session.User = user
	return session, nil
}

// upgradeHash replaces a legacy hash. Login succeeds regardless.
func (m *SessionManager) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := m.hasher.Hash(password)
	if err != nil {
		m.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := m.store.Repos().Users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		m.logger.WarnContext(ctx, "password hash upgrade failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = newHash
}

// Validate checks that token is one of the sessions of userID.
//
// The user id is supplied by the caller and is not bound to the token beyond
// this lookup. Resolve derives the user from the token alone.
func (m *SessionManager) Validate(ctx context.Context, userID int64, token string) (*Session, error) {
	repos := m.store.Repos()

	user, err := getUser(ctx, repos.Users, ByID(userID))
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := repos.Sessions.GetByUserAndTokenHash(ctx, user.ID, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, databaseError(oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by user and token").
			With("user_id", userID).
			Wrap(err))
	}

	session.Token = token
	session.User = user
	return session, nil
}

// Resolve finds the session for token without trusting a caller-supplied
// user id.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	repos := m.store.Repos()

	session, err := repos.Sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, databaseError(oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session by token").
			Wrap(err))
	}

	user, err := getUser(ctx, repos.Users, ByID(session.UserID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	session.Token = token
	session.User = user
	return session, nil
}

// Poll records activity on the session. Repeated calls only rewrite
// last_activity; no rows are added.
func (m *SessionManager) Poll(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	now := m.now()
	if err := m.store.Repos().Sessions.Touch(ctx, session.ID, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidSession
		}
		return databaseError(oops.Code("SESSION_POLL_FAILED").
			With("operation", "update last_activity").
			With("session_id", session.ID.String()).
			Wrap(err))
	}
	session.LastActivity = now
	return nil
}

// Sessions lists the sessions of a user.
func (m *SessionManager) Sessions(ctx context.Context, userID int64) ([]*Session, error) {
	sessions, err := m.store.Repos().Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, databaseError(err)
	}
	return sessions, nil
}
