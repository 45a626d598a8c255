// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// IdentityStore owns user records: registration, lookup, activation and the
// read-only role and achievement relations.
type IdentityStore struct {
	store       Store
	hasher      PasswordHasher
	tokens      TokenSource
	codeLength  int
	defaultRole string
}

// IdentityOption configures an IdentityStore.
type IdentityOption func(*IdentityStore)

// WithCodeLength sets the verification code length. Non-positive values are
// ignored.
func WithCodeLength(n int) IdentityOption {
	return func(s *IdentityStore) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithDefaultRole sets the role name assigned at registration. An empty name
// leaves role_id to the database default.
func WithDefaultRole(name string) IdentityOption {
	return func(s *IdentityStore) {
		s.defaultRole = name
	}
}

// NewIdentityStore creates an IdentityStore.
func NewIdentityStore(store Store, hasher PasswordHasher, tokens TokenSource, opts ...IdentityOption) (*IdentityStore, error) {
	if store == nil {
		return nil, oops.Code("IDENTITY_INVALID_CONFIG").Errorf("store is required")
	}
	if hasher == nil {
		return nil, oops.Code("IDENTITY_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("IDENTITY_INVALID_CONFIG").Errorf("token source is required")
	}
	s := &IdentityStore{
		store:      store,
		hasher:     hasher,
		tokens:     tokens,
		codeLength: DefaultCodeLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registration is the input to Register. It must already have passed the
// credential validator.
type Registration struct {
	Username string
	Password string
	Email    string
	RealName string
}

// Register hashes the password, inserts the user and issues a verification
// code in one transaction. Username and email uniqueness is decided by the
// database constraints, so concurrent registrations race safely.
func (s *IdentityStore) Register(ctx context.Context, reg Registration) (*User, *VerificationCode, error) {
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, nil, databaseError(oops.Code("REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err))
	}

	realName := reg.RealName
	if realName == "" {
		realName = reg.Username
	}

	var (
		user *User
		code *VerificationCode
	)
	err = s.store.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		var roleID int64
		if s.defaultRole != "" {
			role, roleErr := repos.Roles.GetByName(ctx, s.defaultRole)
			if roleErr != nil {
				return oops.Code("REGISTER_FAILED").
					With("operation", "resolve default role").
					With("role", s.defaultRole).
					Wrap(roleErr)
			}
			roleID = role.ID
		}

		created, createErr := repos.Users.Create(ctx, NewUser{
			Username:     reg.Username,
			PasswordHash: hash,
			RealName:     realName,
			Email:        reg.Email,
			RoleID:       roleID,
		})
		if createErr != nil {
			return createErr
		}

		issued, issueErr := issueCode(ctx, repos.Verifications, s.tokens, created.ID, s.codeLength)
		if issueErr != nil {
			return issueErr
		}

		user, code = created, issued
		return nil
	})
	if err != nil {
		return nil, nil, databaseError(err)
	}
	return user, code, nil
}

// GetUser looks a user up by exactly one of id or username. Username lookup
// is exact and case-sensitive. A miss is a request error (ErrNoSuchUser),
// not a session one.
func (s *IdentityStore) GetUser(ctx context.Context, lookup Lookup) (*User, error) {
	if !lookup.valid() {
		return nil, ErrInvalidLookup
	}
	user, err := getUser(ctx, s.store.Repos().Users, lookup)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrNoSuchUser
	}
	return user, err
}

// Activate marks the user activated and removes the outstanding verification
// code in one transaction.
func (s *IdentityStore) Activate(ctx context.Context, userID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Users.SetActivated(ctx, userID, true); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrUserNotFound
			}
			return oops.Code("ACTIVATE_FAILED").
				With("operation", "set activated").
				With("user_id", userID).
				Wrap(err)
		}
		if err := repos.Verifications.DeleteByUser(ctx, userID); err != nil {
			return oops.Code("ACTIVATE_FAILED").
				With("operation", "delete verification").
				With("user_id", userID).
				Wrap(err)
		}
		return nil
	})
	return databaseError(err)
}

// Role returns the role referenced by the user's role_id.
func (s *IdentityStore) Role(ctx context.Context, userID int64) (*Role, error) {
	role, err := s.store.Repos().Roles.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, databaseError(err)
	}
	return role, nil
}

// Achievements returns the ids of the achievements the user has earned.
func (s *IdentityStore) Achievements(ctx context.Context, userID int64) ([]AchievementID, error) {
	ids, err := s.store.Repos().Achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, databaseError(err)
	}
	return ids, nil
}

// UpgradePasswordHash rehashes password and stores it for the user.
func (s *IdentityStore) UpgradePasswordHash(ctx context.Context, userID int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return databaseError(err)
	}
	return databaseError(s.store.Repos().Users.UpdatePassword(ctx, userID, hash))
}

// RecordLogin sets date_login outside of a session transaction.
func (s *IdentityStore) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	return databaseError(s.store.Repos().Users.TouchLogin(ctx, userID, at))
}

func getUser(ctx context.Context, users UserRepository, lookup Lookup) (*User, error) {
	var (
		user *User
		err  error
	)
	switch {
	case lookup.ID > 0:
		user, err = users.GetByID(ctx, lookup.ID)
	case lookup.ID == 0 && lookup.Username != "":
		user, err = users.GetByUsername(ctx, lookup.Username)
	default:
		// Ids are store-assigned and positive, so nothing can match.
		return nil, ErrUserNotFound
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, databaseError(err)
	}
	return user, nil
}

// issueCode generates a fresh code and upserts it for userID.
func issueCode(ctx context.Context, repo VerificationRepository, tokens TokenSource, userID int64, length int) (*VerificationCode, error) {
	value, err := tokens.String(length)
	if err != nil {
		return nil, oops.Code("ISSUE_CODE_FAILED").
			With("operation", "generate code").
			With("user_id", userID).
			Wrap(err)
	}
	code := VerificationCode{UserID: userID, Code: value}
	if err := repo.Upsert(ctx, code); err != nil {
		return nil, oops.Code("ISSUE_CODE_FAILED").
			With("operation", "upsert verification").
			With("user_id", userID).
			Wrap(err)
	}
	return &code, nil
}
