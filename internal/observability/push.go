// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

// Package observability collects stkaddons metrics and pushes them to a
// Prometheus Pushgateway.
package observability

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "stkaddons"

// NewRegistry creates a registry holding Go runtime, process and account
// metrics. It uses a private registry to avoid polluting the global one.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	account.RegisterMetrics(registry)
	return registry
}

// PushConfig locates the Pushgateway.
type PushConfig struct {
	// URL of the Pushgateway. Empty disables pushing.
	URL string
	// Job defaults to DefaultJob.
	Job string
	// Instance is added as a grouping label when set.
	Instance string
	// Timeout bounds a single push. Defaults to 5s.
	Timeout time.Duration
	// Client defaults to an http.Client with Timeout.
	Client *http.Client
}

// Pusher sends a registry to a Pushgateway.
type Pusher struct {
	cfg    PushConfig
	gather prometheus.Gatherer
	logger *slog.Logger
}

// NewPusher creates a Pusher for gatherer.
func NewPusher(cfg PushConfig, gatherer prometheus.Gatherer, logger *slog.Logger) *Pusher {
	if cfg.Job == "" {
		cfg.Job = DefaultJob
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pusher{cfg: cfg, gather: gatherer, logger: logger}
}

// Enabled reports whether a Pushgateway URL is configured.
func (p *Pusher) Enabled() bool {
	return p.cfg.URL != ""
}

// Push replaces the job's metrics on the Pushgateway. It is a no-op when
// pushing is disabled.
func (p *Pusher) Push(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	pusher := push.New(p.cfg.URL, p.cfg.Job).
		Gatherer(p.gather).
		Client(p.cfg.Client)
	if p.cfg.Instance != "" {
		pusher = pusher.Grouping("instance", p.cfg.Instance)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return oops.Code("METRICS_PUSH_FAILED").
			With("url", p.cfg.URL).
			With("job", p.cfg.Job).
			Wrap(err)
	}
	p.logger.DebugContext(ctx, "metrics pushed", "url", p.cfg.URL, "job", p.cfg.Job)
	return nil
}
