// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/account/mocks"
	"github.com/stkaddons/stkaddons/internal/mail"
	mailmocks "github.com/stkaddons/stkaddons/internal/mail/mocks"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// fakeStore runs transactions inline against the same mock repositories.
type fakeStore struct {
	repos   account.Repositories
	txCalls int
}

func (s *fakeStore) Repos() account.Repositories { return s.repos }

func (s *fakeStore) InTx(ctx context.Context, fn func(context.Context, account.Repositories) error) error {
	s.txCalls++
	return fn(ctx, s.repos)
}

type fixture struct {
	users         *mocks.MockUserRepository
	sessions      *mocks.MockSessionRepository
	verifications *mocks.MockVerificationRepository
	roles         *mocks.MockRoleRepository
	achievements  *mocks.MockAchievementRepository
	hasher        *mocks.MockPasswordHasher
	tokens        *mocks.MockTokenSource
	sender        *mailmocks.MockSender
	store         *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:         mocks.NewMockUserRepository(t),
		sessions:      mocks.NewMockSessionRepository(t),
		verifications: mocks.NewMockVerificationRepository(t),
		roles:         mocks.NewMockRoleRepository(t),
		achievements:  mocks.NewMockAchievementRepository(t),
		hasher:        mocks.NewMockPasswordHasher(t),
		tokens:        mocks.NewMockTokenSource(t),
		sender:        mailmocks.NewMockSender(t),
	}
	f.store = &fakeStore{repos: account.Repositories{
		Users:         f.users,
		Sessions:      f.sessions,
		Verifications: f.verifications,
		Roles:         f.roles,
		Achievements:  f.achievements,
	}}
	return f
}

func (f *fixture) identity(t *testing.T, opts ...account.IdentityOption) *account.IdentityStore {
	t.Helper()
	s, err := account.NewIdentityStore(f.store, f.hasher, f.tokens, opts...)
	require.NoError(t, err)
	return s
}

func (f *fixture) sessionManager(t *testing.T) *account.SessionManager {
	t.Helper()
	m, err := account.NewSessionManager(f.store, f.hasher, f.tokens,
		account.WithClock(func() time.Time { return fixedNow }),
		account.WithSessionLogger(discardLogger()),
	)
	require.NoError(t, err)
	return m
}

func (f *fixture) verification(t *testing.T, identity *account.IdentityStore) *account.VerificationWorkflow {
	t.Helper()
	composer, err := mail.NewComposer("noreply@stkaddons.test", "STK Addons", "https://online.stkaddons.test")
	require.NoError(t, err)
	w, err := account.NewVerificationWorkflow(f.store, identity, f.sender, composer, discardLogger())
	require.NoError(t, err)
	return w
}

func (f *fixture) service(t *testing.T, opts ...account.ServiceOption) *account.Service {
	t.Helper()
	validator, err := account.NewValidator([]string{"admin*"})
	require.NoError(t, err)
	identity := f.identity(t)
	opts = append([]account.ServiceOption{account.WithLogger(discardLogger())}, opts...)
	svc, err := account.NewService(validator, identity, f.sessionManager(t), f.verification(t, identity), opts...)
	require.NoError(t, err)
	return svc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser(id int64, username string) *account.User {
	return &account.User{
		ID:           id,
		Username:     username,
		PasswordHash: "$argon2id$stored",
		RealName:     username,
		Email:        username + "@example.com",
		RoleID:       1,
		DateRegister: fixedNow.Add(-24 * time.Hour),
	}
}
