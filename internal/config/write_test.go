// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stkaddons/stkaddons/pkg/errutil"
)

func TestWriteDefault_XDGLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := WriteDefault("", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stkaddons", "config.yaml"), path)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, ValidateSchema(data), "written defaults must pass the schema")

	loaded, err := Load(LoadOptions{Path: path, EnvFile: filepath.Join(dir, "missing.env"), Getenv: noEnv})
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, path, loaded.File)
	assert.Equal(t, want.Session, loaded.Session)
	assert.Equal(t, want.Mail, loaded.Mail)
	assert.Equal(t, want.RateLimit, loaded.RateLimit)
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	_, err := WriteDefault(path, false)
	require.NoError(t, err)

	_, err = WriteDefault(path, false)
	errutil.AssertErrorCode(t, err, "CONFIG_EXISTS")
	errutil.AssertErrorContext(t, err, "path", path)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	_, err = WriteDefault(path, true)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level: info")
}
