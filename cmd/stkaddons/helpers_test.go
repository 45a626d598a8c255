// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/internal/store"
)

type fakePusher struct {
	enabled bool
	pushed  int
	err     error
	onPush  func()
}

func (p *fakePusher) Enabled() bool { return p.enabled }

func (p *fakePusher) Push(context.Context) error {
	p.pushed++
	if p.onPush != nil {
		p.onPush()
	}
	return p.err
}

type fakeMigrator struct {
	calls  []string
	steps  int
	forced int
	status *store.Status
	err    error
	closed bool
}

func (m *fakeMigrator) Up() error   { m.calls = append(m.calls, "up"); return m.err }
func (m *fakeMigrator) Down() error { m.calls = append(m.calls, "down"); return m.err }

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.steps = n
	return m.err
}

func (m *fakeMigrator) Force(v int) error {
	m.calls = append(m.calls, "force")
	m.forced = v
	return m.err
}

func (m *fakeMigrator) Status() (*store.Status, error) {
	m.calls = append(m.calls, "status")
	return m.status, m.err
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

// harness runs the root command against fakes.
type harness struct {
	svc         *mockAccountService
	pusher      *fakePusher
	migrator    *fakeMigrator
	cfg         *config.Config
	loadOpts    config.LoadOptions
	released    bool
	migratorURL string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	cfg := config.Default()
	cfg.Database.URL = "postgres://stk@localhost/stk"
	return &harness{
		svc:      newMockAccountService(t),
		pusher:   &fakePusher{},
		migrator: &fakeMigrator{},
		cfg:      cfg,
	}
}

func (h *harness) deps() *Deps {
	return &Deps{
		ConfigLoader: func(opts config.LoadOptions) (*config.Loaded, error) {
			h.loadOpts = opts
			return &config.Loaded{Config: h.cfg}, nil
		},
		ServiceFactory: func(context.Context, *config.Config, *slog.Logger) (AccountService, func(context.Context) error, error) {
			return h.svc, func(context.Context) error {
				h.released = true
				return nil
			}, nil
		},
		MigratorFactory: func(url string) (Migrator, error) {
			h.migratorURL = url
			return h.migrator, nil
		},
		PusherFactory: func(config.MetricsConfig, *slog.Logger) MetricsPusher {
			return h.pusher
		},
	}
}

// run executes args and returns stdout.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return execute(h.deps(), stdin, args...)
}

func execute(deps *Deps, stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmdWithDeps(deps)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
