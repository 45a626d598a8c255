// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package observability

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

type gateway struct {
	mu     sync.Mutex
	method string
	path   string
	body   string
	status int
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.method, g.path, g.body = r.Method, r.URL.Path, string(body)
	w.WriteHeader(g.status)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "stkaddons_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	return reg
}

func TestPusher_Push(t *testing.T) {
	gw := &gateway{status: http.StatusOK}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	p := NewPusher(PushConfig{URL: srv.URL, Instance: "cli"}, testRegistry(t), discard())
	require.True(t, p.Enabled())
	require.NoError(t, p.Push(context.Background()))

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, http.MethodPut, gw.method)
	assert.Equal(t, "/metrics/job/stkaddons/instance/cli", gw.path)
	assert.NotEmpty(t, gw.body)
}

func TestPusher_Disabled(t *testing.T) {
	p := NewPusher(PushConfig{}, testRegistry(t), discard())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Push(context.Background()))
}

func TestPusher_GatewayError(t *testing.T) {
	srv := httptest.NewServer(&gateway{status: http.StatusInternalServerError})
	defer srv.Close()

	p := NewPusher(PushConfig{URL: srv.URL, Job: "nightly"}, testRegistry(t), discard())
	err := p.Push(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "METRICS_PUSH_FAILED")
	errutil.AssertErrorContext(t, err, "job", "nightly")
}

func TestNewRegistry_IncludesAccountMetrics(t *testing.T) {
	reg := NewRegistry()
	account.RecordOperation(account.OpLogin, nil, 0)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "stkaddons_account_operations_total")
	assert.Contains(t, joined, "go_goroutines")
}
