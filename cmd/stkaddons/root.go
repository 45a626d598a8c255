// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/internal/logging"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

// Exit codes.
const (
	exitFailure = 1
	// exitRejected means the account layer refused the request, as opposed
	// to an infrastructure failure.
	exitRejected = 2
)

// NewRootCmd creates the root command for the stkaddons CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "stkaddons",
		Short: "STK Addons account service",
		Long: `stkaddons manages SuperTuxKart online accounts: registration, email
verification, sign-in sessions and session checks.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path (default: $XDG_CONFIG_HOME/stkaddons/config.yaml)")
	flags.String("env-file", ".env", "dotenv file loaded when present")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("log-format", logging.FormatJSON, "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("pushgateway", "", "Prometheus Pushgateway URL (empty = disabled)")

	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewAccountCmd(deps))
	cmd.AddCommand(NewValidateCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads the layered configuration using the persistent flags of
// cmd.
func loadConfig(cmd *cobra.Command, deps *Deps) (*config.Loaded, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	return deps.ConfigLoader(config.LoadOptions{
		Path:    path,
		EnvFile: envFile,
		Flags:   flags,
	})
}

// setupLogger builds the process logger from the loaded config. Logs go to
// stderr so command output on stdout stays scriptable.
func setupLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logging.SetDefault(logging.Options{
		Service: "stkaddons",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  w,
	})
}

// describeError renders err for the terminal. Account rejections use the
// same text end users see; other failures keep their detail for operators.
func describeError(err error) string {
	var ae *account.Error
	if errors.As(err, &ae) && ae.Kind() != account.KindDatabase {
		return account.Message(err)
	}
	code := errutil.Code(err)
	if code == "CONFIG_SCHEMA_VIOLATION" {
		return "config file does not match the schema:\n" + config.FormatSchemaError(err)
	}
	if code != "" {
		return fmt.Sprintf("%s [%s]", err.Error(), code)
	}
	return err.Error()
}

func exitCode(err error) int {
	var ae *account.Error
	if errors.As(err, &ae) && ae.Kind() != account.KindDatabase {
		return exitRejected
	}
	return exitFailure
}
