// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

// shutdownTimeout bounds releasing resources after a command, including
// draining queued mail.
const shutdownTimeout = 30 * time.Second

// session is what an account command runs with.
type session struct {
	cfg     *config.Loaded
	logger  *slog.Logger
	service AccountService
}

// runWithService loads the config, wires the account service and runs fn.
// Metrics are pushed after the service is released, whatever the outcome of
// fn, so mail drained from the queue is included.
func runWithService(cmd *cobra.Command, deps *Deps, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loaded, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	logger, err := setupLogger(loaded.Config, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	svc, release, err := deps.ServiceFactory(ctx, loaded.Config, logger)
	if err != nil {
		return err
	}
	pusher := deps.PusherFactory(loaded.Metrics, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := release(closeCtx); err != nil {
			errutil.LogErrorContext(closeCtx, logger, "shutdown incomplete", err)
		}
		if !pusher.Enabled() {
			return
		}
		if err := pusher.Push(context.WithoutCancel(ctx)); err != nil {
			errutil.LogErrorContext(ctx, logger, "metrics push failed", err)
		}
	}()

	return fn(ctx, &session{cfg: loaded, logger: logger, service: svc})
}
