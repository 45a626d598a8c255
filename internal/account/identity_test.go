// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/account/mocks"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

func TestNewIdentityStore_RequiresDependencies(t *testing.T) {
	store := &fakeStore{}
	hasher := mocks.NewMockPasswordHasher(t)
	tokens := mocks.NewMockTokenSource(t)

	_, err := account.NewIdentityStore(nil, hasher, tokens)
	errutil.AssertErrorCode(t, err, "IDENTITY_INVALID_CONFIG")
	_, err = account.NewIdentityStore(store, nil, tokens)
	errutil.AssertErrorCode(t, err, "IDENTITY_INVALID_CONFIG")
	_, err = account.NewIdentityStore(store, hasher, nil)
	errutil.AssertErrorCode(t, err, "IDENTITY_INVALID_CONFIG")
}

func TestIdentityStore_Register(t *testing.T) {
	ctx := context.Background()
	reg := account.Registration{Username: "racer", Password: "password1", Email: "racer@example.com"}

	t.Run("creates user and code in one transaction", func(t *testing.T) {
		f := newFixture(t)
		created := testUser(7, "racer")

		f.hasher.On("Hash", "password1").Return("$argon2id$new", nil)
		f.users.On("Create", mock.Anything, account.NewUser{
			Username:     "racer",
			PasswordHash: "$argon2id$new",
			RealName:     "racer",
			Email:        "racer@example.com",
		}).Return(created, nil)
		f.tokens.On("String", account.DefaultCodeLength).Return("abcdef", nil)
		f.verifications.On("Upsert", mock.Anything, account.VerificationCode{UserID: 7, Code: "abcdef"}).Return(nil)

		user, code, err := f.identity(t).Register(ctx, reg)
		require.NoError(t, err)
		assert.Same(t, created, user)
		assert.Equal(t, &account.VerificationCode{UserID: 7, Code: "abcdef"}, code)
		assert.Equal(t, 1, f.store.txCalls)
	})

	t.Run("resolves configured default role", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password1").Return("h", nil)
		f.roles.On("GetByName", mock.Anything, "user").Return(&account.Role{ID: 3, Name: "user"}, nil)
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u account.NewUser) bool {
			return u.RoleID == 3 && u.RealName == "Jane Racer"
		})).Return(testUser(8, "racer"), nil)
		f.tokens.On("String", 12).Return("twelvechars!", nil)
		f.verifications.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		withName := reg
		withName.RealName = "Jane Racer"
		_, code, err := f.identity(t, account.WithDefaultRole("user"), account.WithCodeLength(12)).Register(ctx, withName)
		require.NoError(t, err)
		assert.Equal(t, "twelvechars!", code.Code)
	})

	t.Run("duplicate username surfaces conflict", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password1").Return("h", nil)
		f.users.On("Create", mock.Anything, mock.Anything).
			Return(nil, oops.Code("USER_CREATE_FAILED").Wrap(account.ErrUsernameTaken))

		_, _, err := f.identity(t).Register(ctx, reg)
		require.ErrorIs(t, err, account.ErrUsernameTaken)
		assert.Equal(t, account.KindConflict, account.KindOf(err))
	})

	t.Run("duplicate email surfaces conflict", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password1").Return("h", nil)
		f.users.On("Create", mock.Anything, mock.Anything).
			Return(nil, oops.Code("USER_CREATE_FAILED").Wrap(account.ErrEmailTaken))

		_, _, err := f.identity(t).Register(ctx, reg)
		require.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("storage failure is a database error", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password1").Return("h", nil)
		f.users.On("Create", mock.Anything, mock.Anything).Return(testUser(9, "racer"), nil)
		f.tokens.On("String", mock.Anything).Return("code", nil)
		f.verifications.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		_, _, err := f.identity(t).Register(ctx, reg)
		require.ErrorIs(t, err, account.ErrDatabase)
		errutil.AssertErrorContext(t, err, "operation", "upsert verification")
	})

	t.Run("hash failure is a database error", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password1").Return("", errors.New("entropy exhausted"))

		_, _, err := f.identity(t).Register(ctx, reg)
		require.ErrorIs(t, err, account.ErrDatabase)
		assert.Equal(t, 0, f.store.txCalls)
	})
}

func TestIdentityStore_GetUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		lookup  account.Lookup
		setup   func(f *fixture)
		wantErr error
	}{
		{"by id", account.ByID(7), func(f *fixture) {
			f.users.On("GetByID", mock.Anything, int64(7)).Return(testUser(7, "racer"), nil)
		}, nil},
		{"by username", account.ByUsername("racer"), func(f *fixture) {
			f.users.On("GetByUsername", mock.Anything, "racer").Return(testUser(7, "racer"), nil)
		}, nil},
		{"neither", account.Lookup{}, func(*fixture) {}, account.ErrInvalidLookup},
		{"both", account.Lookup{ID: 7, Username: "racer"}, func(*fixture) {}, account.ErrInvalidLookup},
		{"unknown", account.ByID(404), func(f *fixture) {
			f.users.On("GetByID", mock.Anything, int64(404)).
				Return(nil, oops.Code("USER_NOT_FOUND").Wrap(account.ErrNotFound))
		}, account.ErrNoSuchUser},
		{"unknown username", account.ByUsername("ghost"), func(f *fixture) {
			f.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, account.ErrNotFound)
		}, account.ErrNoSuchUser},
		{"storage failure", account.ByUsername("racer"), func(f *fixture) {
			f.users.On("GetByUsername", mock.Anything, "racer").Return(nil, errors.New("timeout"))
		}, account.ErrDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			user, err := f.identity(t).GetUser(ctx, tt.lookup)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "racer", user.Username)
		})
	}
}

func TestIdentityStore_Activate(t *testing.T) {
	ctx := context.Background()

	t.Run("sets flag and deletes code", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("SetActivated", mock.Anything, int64(7), true).Return(nil)
		f.verifications.On("DeleteByUser", mock.Anything, int64(7)).Return(nil)

		require.NoError(t, f.identity(t).Activate(ctx, 7))
		assert.Equal(t, 1, f.store.txCalls)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("SetActivated", mock.Anything, int64(7), true).Return(account.ErrNotFound)

		require.ErrorIs(t, f.identity(t).Activate(ctx, 7), account.ErrUserNotFound)
	})

	t.Run("delete failure rolls back", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("SetActivated", mock.Anything, int64(7), true).Return(nil)
		f.verifications.On("DeleteByUser", mock.Anything, int64(7)).Return(errors.New("deadlock"))

		err := f.identity(t).Activate(ctx, 7)
		require.ErrorIs(t, err, account.ErrDatabase)
		errutil.AssertErrorCode(t, err, "ACTIVATE_FAILED")
	})
}

func TestIdentityStore_RoleAndAchievements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	display := "Moderator"
	f.roles.On("GetByUser", mock.Anything, int64(7)).Return(&account.Role{ID: 2, Name: "moderator", DisplayName: &display}, nil)
	f.roles.On("GetByUser", mock.Anything, int64(8)).Return(nil, account.ErrNotFound)
	f.achievements.On("ListByUser", mock.Anything, int64(7)).Return([]account.AchievementID{1, 5}, nil)

	identity := f.identity(t)

	role, err := identity.Role(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Moderator", role.Label())

	_, err = identity.Role(ctx, 8)
	require.ErrorIs(t, err, account.ErrNoSuchUser)

	ids, err := identity.Achievements(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []account.AchievementID{1, 5}, ids)
}

func TestIdentityStore_UpgradePasswordHash(t *testing.T) {
	f := newFixture(t)
	f.hasher.On("Hash", "password1").Return("$argon2id$fresh", nil)
	f.users.On("UpdatePassword", mock.Anything, int64(7), "$argon2id$fresh").Return(nil)

	require.NoError(t, f.identity(t).UpgradePasswordHash(context.Background(), 7, "password1"))
}
