// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stkaddons/stkaddons/internal/account"
)

// NewValidateCmd creates the validate command group. It runs the credential
// checks only and needs no database.
func NewValidateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a username, password or email against the registration rules",
	}
	cmd.AddCommand(
		newFieldCheckCmd(deps, "username", func(v *account.Validator, s string) error { return v.Username(s) }),
		newFieldCheckCmd(deps, "password", func(_ *account.Validator, s string) error { return account.ValidatePassword(s) }),
		newFieldCheckCmd(deps, "email", func(_ *account.Validator, s string) error { return account.ValidateEmail(s) }),
	)
	return cmd
}

func newFieldCheckCmd(deps *Deps, field string, check func(*account.Validator, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   field + " VALUE",
		Short: "Check a " + field,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cmd, deps)
			if err != nil {
				return err
			}
			validator, err := account.NewValidator(loaded.Registration.ReservedUsernames)
			if err != nil {
				return err
			}
			if err := check(validator, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
