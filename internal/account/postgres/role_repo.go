// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

// RoleRepository implements account.RoleRepository using PostgreSQL.
type RoleRepository struct {
	db DB
}

var _ account.RoleRepository = (*RoleRepository)(nil)

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByUser returns the role referenced by the user's role column.
func (r *RoleRepository) GetByUser(ctx context.Context, userID int64) (*account.Role, error) {
	var role account.Role
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.name, r.display_name
		FROM roles r
		JOIN users u ON u.role = r.id
		WHERE u.id = $1
	`, userID).Scan(&role.ID, &role.Name, &role.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").
			With("user_id", userID).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").
			With("operation", "get role by user").
			With("user_id", userID).
			Wrap(err)
	}
	return &role, nil
}

// GetByName returns the role with the given machine name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*account.Role, error) {
	var role account.Role
	err := r.db.QueryRow(ctx, `SELECT id, name, display_name FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").
			With("name", name).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").
			With("operation", "get role by name").
			With("name", name).
			Wrap(err)
	}
	return &role, nil
}
