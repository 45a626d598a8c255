// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
)

// Guard gates operations on a valid session.
type Guard struct {
	sessions          *SessionManager
	requireActivation bool
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// RequireActivated rejects sessions of accounts that have not been
// activated yet with ErrNotActivated.
func RequireActivated(required bool) GuardOption {
	return func(g *Guard) {
		g.requireActivation = required
	}
}

// NewGuard creates a Guard backed by sessions.
func NewGuard(sessions *SessionManager, opts ...GuardOption) *Guard {
	g := &Guard{sessions: sessions}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequireSession validates the (userID, token) pair the game client sends
// and returns the session.
func (g *Guard) RequireSession(ctx context.Context, userID int64, token string) (*Session, error) {
	session, err := g.sessions.Validate(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if err := g.check(session); err != nil {
		return nil, err
	}
	return session, nil
}

// RequireToken resolves the session from the token alone.
func (g *Guard) RequireToken(ctx context.Context, token string) (*Session, error) {
	session, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := g.check(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (g *Guard) check(session *Session) error {
	if g.requireActivation && session.User != nil && !session.User.Activated {
		return ErrNotActivated
	}
	return nil
}
