// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stkaddons/stkaddons/internal/store"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, deps, func(m Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
					return nil
				})
			},
		},
		newMigrateDownCmd(deps),
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, deps, func(m Migrator) error {
					status, err := m.Status()
					if err != nil {
						return err
					}
					printStatus(cmd, status)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Long: `Set the schema version without running migrations. Use this to
clear the dirty flag after fixing a failed migration by hand.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("CLI_INVALID_ARGUMENT").With("version", args[0]).Wrap(err)
				}
				return withMigrator(cmd, deps, func(m Migrator) error {
					if err := m.Force(v); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Schema version forced to %d\n", v)
					return nil
				})
			},
		},
	)
	return cmd
}

func newMigrateDownCmd(deps *Deps) *cobra.Command {
	var steps int
	var all bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && steps <= 0 {
				return oops.Code("CLI_INVALID_ARGUMENT").Errorf("--steps must be positive")
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if all {
					if err := m.Down(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "All migrations rolled back")
					return nil
				}
				if err := m.Steps(-steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

// withMigrator opens a migrator on the configured database and closes it
// after fn.
func withMigrator(cmd *cobra.Command, deps *Deps, fn func(Migrator) error) (err error) {
	loaded, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	if _, err := setupLogger(loaded.Config, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if loaded.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").
			Errorf("database.url, --database-url or DATABASE_URL is required")
	}

	m, err := deps.MigratorFactory(loaded.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(m)
}

func printStatus(cmd *cobra.Command, s *store.Status) {
	w := cmd.OutOrStdout()
	if s.Version == 0 {
		fmt.Fprintln(w, "version: none")
	} else {
		fmt.Fprintf(w, "version: %d (%s)\n", s.Version, s.Name)
	}
	fmt.Fprintf(w, "dirty:   %t\n", s.Dirty)
	fmt.Fprintf(w, "applied: %s\n", joinVersions(s.Applied))
	fmt.Fprintf(w, "pending: %s\n", joinVersions(s.Pending))
}

func joinVersions(vs []uint) string {
	if len(vs) == 0 {
		return "-"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ",")
}
