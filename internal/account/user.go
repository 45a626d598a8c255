// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"time"
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	RealName     string
	Email        string
	RoleID       int64
	Activated    bool
	DateRegister time.Time
	DateLogin    *time.Time
	Homepage     *string
}

// DisplayName returns the real name, falling back to the username.
func (u *User) DisplayName() string {
	if u.RealName == "" {
		return u.Username
	}
	return u.RealName
}

// NewUser is the input to UserRepository.Create. The password is already
// hashed.
type NewUser struct {
	Username     string
	PasswordHash string
	RealName     string
	Email        string
	RoleID       int64
}

// Role is an authorization tier.
type Role struct {
	ID          int64
	Name        string
	DisplayName *string
}

// Label returns the display name when present and the machine name otherwise.
func (r *Role) Label() string {
	if r.DisplayName != nil && *r.DisplayName != "" {
		return *r.DisplayName
	}
	return r.Name
}

// AchievementID identifies an achievement a user has earned.
type AchievementID int64

// Lookup selects a user by exactly one of ID or Username.
type Lookup struct {
	ID       int64
	Username string
}

// ByID returns a Lookup for a numeric id.
func ByID(id int64) Lookup { return Lookup{ID: id} }

// ByUsername returns a Lookup for a username.
func ByUsername(username string) Lookup { return Lookup{Username: username} }

func (l Lookup) valid() bool {
	return (l.ID != 0) != (l.Username != "")
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create inserts a user with activated=false and returns it with the
	// store-assigned id. Unique violations return ErrUsernameTaken or
	// ErrEmailTaken.
	Create(ctx context.Context, user NewUser) (*User, error)

	// GetByID retrieves a user by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by exact username. Returns ErrNotFound
	// if absent.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// SetActivated sets the activated flag. Returns ErrNotFound if the user
	// does not exist.
	SetActivated(ctx context.Context, id int64, activated bool) error

	// TouchLogin sets date_login.
	TouchLogin(ctx context.Context, id int64, at time.Time) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// RoleRepository reads roles.
type RoleRepository interface {
	// GetByUser returns the role referenced by the user's role_id.
	GetByUser(ctx context.Context, userID int64) (*Role, error)

	// GetByName returns a role by its machine name.
	GetByName(ctx context.Context, name string) (*Role, error)
}

// AchievementRepository reads the achieved relation.
type AchievementRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]AchievementID, error)
}
