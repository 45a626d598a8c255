// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/stkaddons/stkaddons/internal/xdg"
)

// EnvDatabaseURL overrides database.url when set.
const EnvDatabaseURL = "DATABASE_URL"

// FlagKeys maps command line flag names to config keys. Only flags the user
// actually set override the file.
var FlagKeys = map[string]string{
	"database-url": "database.url",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"pushgateway":  "metrics.pushgateway",
}

// LoadOptions controls where Load reads settings from.
type LoadOptions struct {
	// Path is an explicit config file. It must exist. When empty the XDG
	// config file is read if present.
	Path string
	// EnvFile is a dotenv file merged into the process environment if it
	// exists. Variables already set win. Empty selects ".env".
	EnvFile string
	// Flags supplies overrides for the keys in FlagKeys.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Loaded is a Config along with the file it came from.
type Loaded struct {
	*Config
	// File is the config file that was read, or empty.
	File string
}

// Load layers defaults, the config file, the environment and flags, then
// validates the result.
func Load(opts LoadOptions) (*Loaded, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("CONFIG_ENV_FILE").With("path", envFile).Wrap(err)
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	path, required := opts.Path, true
	if path == "" {
		p, err := xdg.ConfigFile()
		if err != nil {
			return nil, err
		}
		path, required = p, false
	}

	ko := koanf.New(".")

	loadedFile, err := loadFile(ko, path, required)
	if err != nil {
		return nil, err
	}

	if v := getenv(EnvDatabaseURL); v != "" {
		if err := ko.Set("database.url", v); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", ko, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := ko.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := ko.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", loadedFile).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, oops.With("path", loadedFile).Wrap(err)
	}
	return &Loaded{Config: cfg, File: loadedFile}, nil
}

// loadFile schema-checks and loads path into ko. It returns the path when a
// file was read.
func loadFile(ko *koanf.Koanf, path string, required bool) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateSchema(data); err != nil {
		return "", oops.With("path", path).Wrap(err)
	}
	if err := ko.Load(file.Provider(path), yaml.Parser()); err != nil {
		return "", oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}
