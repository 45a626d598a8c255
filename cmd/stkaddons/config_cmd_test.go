// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

// fileDeps uses the real loader, isolated from the host environment.
func fileDeps(t *testing.T) (*Deps, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(config.EnvDatabaseURL, "")
	h := newHarness(t)
	deps := h.deps()
	deps.ConfigLoader = config.Load
	return deps, dir
}

func TestConfigShow_Redacts(t *testing.T) {
	deps, dir := fileDeps(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: postgres://stk:hunter2@db/stk
mail:
  driver: smtp
  smtp:
    host: mail.example.com
    password: smtp-secret
`), 0o600))

	out, err := execute(deps, "", "--config", path, "--env-file", filepath.Join(dir, "none.env"), "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "# loaded from "+path)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "smtp-secret")

	var shown map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "database")
}

func TestConfigShow_FlagOverride(t *testing.T) {
	deps, dir := fileDeps(t)

	out, err := execute(deps, "", "--env-file", filepath.Join(dir, "none.env"), "--log-level", "debug", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")
}

func TestConfigValidate(t *testing.T) {
	deps, dir := fileDeps(t)
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("site:\n  name: Test\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("site:\n  colour: blue\n"), 0o600))
	envFile := filepath.Join(dir, "none.env")

	out, err := execute(deps, "", "--config", good, "--env-file", envFile, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, good+" is valid")

	_, err = execute(deps, "", "--config", bad, "--env-file", envFile, "config", "validate")
	errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")

	out, err = execute(deps, "", "--env-file", envFile, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "no config file found")
}

func TestConfigInit_WritesXDGFile(t *testing.T) {
	deps, dir := fileDeps(t)

	out, err := execute(deps, "", "config", "init")
	require.NoError(t, err)
	path := filepath.Join(dir, "stkaddons", "config.yaml")
	assert.Contains(t, out, "wrote "+path)

	out, err = execute(deps, "", "--env-file", filepath.Join(dir, "none.env"), "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, path+" is valid")

	_, err = execute(deps, "", "config", "init")
	errutil.AssertErrorCode(t, err, "CONFIG_EXISTS")

	_, err = execute(deps, "", "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigInit_ExplicitPath(t *testing.T) {
	deps, dir := fileDeps(t)
	path := filepath.Join(dir, "custom", "stk.yaml")

	out, err := execute(deps, "", "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)
	_, err = os.Stat(path)
	require.NoError(t, err)
}
