// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

// Unique constraint names declared by the accounts migration.
const (
	constraintUniqueUsername = "user_unique_username"
	constraintUniqueEmail    = "user_unique_email"
)

const userColumns = `id, username, password, realname, email, role, activated,
		       date_register, date_login, homepage`

// UserRepository implements account.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

var _ account.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A zero RoleID leaves the column default in place.
func (r *UserRepository) Create(ctx context.Context, user account.NewUser) (*account.User, error) {
	var row pgx.Row
	if user.RoleID == 0 {
		row = r.db.QueryRow(ctx, `
			INSERT INTO users (username, password, realname, email)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns,
			user.Username, user.PasswordHash, user.RealName, user.Email)
	} else {
		row = r.db.QueryRow(ctx, `
			INSERT INTO users (username, password, realname, email, role)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userColumns,
			user.Username, user.PasswordHash, user.RealName, user.Email, user.RoleID)
	}

	created, err := scanUser(row)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case constraintUniqueUsername:
				return nil, oops.Code("USER_CREATE_FAILED").
					With("username", user.Username).
					Wrap(account.ErrUsernameTaken)
			case constraintUniqueEmail:
				return nil, oops.Code("USER_CREATE_FAILED").
					With("username", user.Username).
					Wrap(account.ErrEmailTaken)
			}
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return created, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by exact, case-sensitive username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// SetActivated sets the activated flag.
func (r *UserRepository) SetActivated(ctx context.Context, id int64, activated bool) error {
	return r.update(ctx, "set activated", `UPDATE users SET activated = $2 WHERE id = $1`, id, activated)
}

// TouchLogin sets date_login.
func (r *UserRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, "touch login", `UPDATE users SET date_login = $2 WHERE id = $1`, id, at)
}

// UpdatePassword replaces the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, "update password", `UPDATE users SET password = $2 WHERE id = $1`, id, passwordHash)
}

func (r *UserRepository) update(ctx context.Context, operation, sql string, id int64, value any) error {
	result, err := r.db.Exec(ctx, sql, id, value)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", operation).
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(account.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*account.User, error) {
	var u account.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.RealName,
		&u.Email,
		&u.RoleID,
		&u.Activated,
		&u.DateRegister,
		&u.DateLogin,
		&u.Homepage,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	return &u, nil
}
