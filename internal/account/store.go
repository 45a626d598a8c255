// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
)

// VerificationCode is the one outstanding activation ticket of a user.
type VerificationCode struct {
	UserID int64
	Code   string
}

// VerificationRepository manages verification codes.
type VerificationRepository interface {
	// Upsert stores code for the user, replacing any existing code.
	Upsert(ctx context.Context, code VerificationCode) error

	// GetByUser returns the outstanding code of a user. Returns ErrNotFound
	// if there is none.
	GetByUser(ctx context.Context, userID int64) (*VerificationCode, error)

	// GetByCode looks a code up by value. Returns ErrNotFound if absent.
	GetByCode(ctx context.Context, code string) (*VerificationCode, error)

	// DeleteByUser removes the user's code. Deleting a missing code is not
	// an error.
	DeleteByUser(ctx context.Context, userID int64) error
}

// Repositories bundles the repositories bound to one database handle.
type Repositories struct {
	Users         UserRepository
	Sessions      SessionRepository
	Verifications VerificationRepository
	Roles         RoleRepository
	Achievements  AchievementRepository
}

// Store hands out repositories and runs transactions.
type Store interface {
	// Repos returns repositories that run each call on its own pooled
	// connection.
	Repos() Repositories

	// InTx runs fn with repositories bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
