// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

// Package postgres implements the account repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

// DB is the query surface shared by a pool and a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DB that can open transactions. *pgxpool.Pool satisfies it.
type Pool interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements account.Store.
type Store struct {
	pool Pool
}

var _ account.Store = (*Store)(nil)

// NewStore creates a Store on pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

// Repos implements account.Store.
func (s *Store) Repos() account.Repositories {
	return repositories(s.pool)
}

// InTx implements account.Store. Errors returned by fn are passed through
// unchanged so account codes survive the rollback.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos account.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	return commitOrRollback(ctx, tx, fn(ctx, repositories(tx)))
}

func commitOrRollback(ctx context.Context, tx pgx.Tx, fnErr error) error {
	if fnErr != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(fnErr, oops.Code("TX_ROLLBACK_FAILED").Wrap(rbErr))
		}
		return fnErr
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

func repositories(db DB) account.Repositories {
	return account.Repositories{
		Users:         NewUserRepository(db),
		Sessions:      NewSessionRepository(db),
		Verifications: NewVerificationRepository(db),
		Roles:         NewRoleRepository(db),
		Achievements:  NewAchievementRepository(db),
	}
}

// uniqueViolation reports the constraint name of a unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
