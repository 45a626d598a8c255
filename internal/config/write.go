// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/stkaddons/stkaddons/internal/xdg"
)

// WriteDefault writes the built-in configuration to path, or to the XDG
// config file when path is empty, and returns the path written. An existing
// file is only replaced when force is set.
func WriteDefault(path string, force bool) (string, error) {
	if path == "" {
		p, err := xdg.ConfigFile()
		if err != nil {
			return "", err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", oops.Code("CONFIG_EXISTS").With("path", path).Errorf("config file already exists")
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", oops.Code("CONFIG_MARSHAL_FAILED").Wrap(err)
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}
