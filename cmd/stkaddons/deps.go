// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/internal/store"
)

// Deps contains injectable dependencies for the CLI commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// ConfigLoader loads the layered configuration.
	// Default: config.Load
	ConfigLoader func(opts config.LoadOptions) (*config.Loaded, error)

	// ServiceFactory wires the account service.
	// Default: newAccountService
	ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (AccountService, func(context.Context) error, error)

	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// PusherFactory creates the metrics pusher.
	// Default: newPusher
	PusherFactory func(cfg config.MetricsConfig, logger *slog.Logger) MetricsPusher
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.ConfigLoader == nil {
		out.ConfigLoader = config.Load
	}
	if out.ServiceFactory == nil {
		out.ServiceFactory = newAccountService
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.PusherFactory == nil {
		out.PusherFactory = newPusher
	}
	return &out
}

// AccountService wraps the methods the account commands use from
// account.Service.
type AccountService interface {
	Register(ctx context.Context, req account.RegisterRequest) (*account.User, error)
	Login(ctx context.Context, username, password, userAgent string) (*account.Session, error)
	ValidateSession(ctx context.Context, userID int64, token string) (*account.Session, error)
	ResolveSession(ctx context.Context, token string) (*account.Session, error)
	Poll(ctx context.Context, userID int64, token string) (*account.Session, error)
	Activate(ctx context.Context, code string) (*account.User, error)
	ResendVerification(ctx context.Context, lookup account.Lookup) error
	Profile(ctx context.Context, lookup account.Lookup) (*account.Profile, error)
	ValidateFields(ctx context.Context, username, password, email string) []error
}

var _ AccountService = (*account.Service)(nil)

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// MetricsPusher wraps the methods used from observability.Pusher.
type MetricsPusher interface {
	Enabled() bool
	Push(ctx context.Context) error
}
