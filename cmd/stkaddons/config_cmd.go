// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stkaddons/stkaddons/internal/config"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialise the configuration",
	}
	cmd.AddCommand(newConfigShowCmd(deps), newConfigValidateCmd(deps), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd, deps)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(loaded.Redacted())
			if err != nil {
				return oops.Code("CONFIG_MARSHAL_FAILED").Wrap(err)
			}
			if loaded.File != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", loaded.File)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigValidateCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file against the schema and rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd, deps)
			if err != nil {
				return err
			}
			if loaded.File == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file found; built-in defaults are valid")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", loaded.File)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in defaults to the config file",
		Long: `Write the built-in defaults to the config file.

The file named by --config is written, or the XDG config file when --config
is not given. An existing file is kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return oops.Code("CLI_INVALID_ARGUMENT").Wrap(err)
			}
			written, err := config.WriteDefault(path, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", written)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing config file")
	return cmd
}
