// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

// Package config loads stkaddons settings from defaults, a YAML file, the
// environment and command line flags.
package config

import (
	"net/url"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/logging"
)

// Mail drivers.
const (
	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

// Token alphabets.
const (
	AlphabetLetters      = "letters"
	AlphabetAlphanumeric = "alphanumeric"
)

// Config is the complete stkaddons configuration.
type Config struct {
	Database     DatabaseConfig     `koanf:"database" json:"database,omitempty" yaml:"database"`
	Registration RegistrationConfig `koanf:"registration" json:"registration,omitempty" yaml:"registration"`
	Session      SessionConfig      `koanf:"session" json:"session,omitempty" yaml:"session"`
	Mail         MailConfig         `koanf:"mail" json:"mail,omitempty" yaml:"mail"`
	Site         SiteConfig         `koanf:"site" json:"site,omitempty" yaml:"site"`
	Log          LogConfig          `koanf:"log" json:"log,omitempty" yaml:"log"`
	Metrics      MetricsConfig      `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics"`
	RateLimit    RateLimitConfig    `koanf:"ratelimit" json:"ratelimit,omitempty" yaml:"ratelimit"`
}

// DatabaseConfig locates PostgreSQL.
type DatabaseConfig struct {
	URL            string `koanf:"url" json:"url,omitempty" yaml:"url" jsonschema:"description=PostgreSQL connection URL. DATABASE_URL overrides it."`
	ConnectRetries uint64 `koanf:"connect_retries" json:"connect_retries,omitempty" yaml:"connect_retries" jsonschema:"minimum=0"`
	MaxConns       int32  `koanf:"max_conns" json:"max_conns,omitempty" yaml:"max_conns" jsonschema:"minimum=0"`
}

// RegistrationConfig controls account creation.
type RegistrationConfig struct {
	Disabled          bool     `koanf:"disabled" json:"disabled,omitempty" yaml:"disabled"`
	DefaultRole       string   `koanf:"default_role" json:"default_role,omitempty" yaml:"default_role" jsonschema:"description=Role name assigned to new accounts. Empty uses the database default."`
	ReservedUsernames []string `koanf:"reserved_usernames" json:"reserved_usernames,omitempty" yaml:"reserved_usernames" jsonschema:"description=Glob patterns of usernames that cannot be registered"`
}

// SessionConfig controls token generation and session checks.
type SessionConfig struct {
	TokenLength       int    `koanf:"token_length" json:"token_length,omitempty" yaml:"token_length" jsonschema:"minimum=16,maximum=255"`
	CodeLength        int    `koanf:"code_length" json:"code_length,omitempty" yaml:"code_length" jsonschema:"minimum=16,maximum=255"`
	Alphabet          string `koanf:"alphabet" json:"alphabet,omitempty" yaml:"alphabet" jsonschema:"enum=letters,enum=alphanumeric"`
	RequireActivation bool   `koanf:"require_activation" json:"require_activation,omitempty" yaml:"require_activation"`
}

// MailConfig selects and configures the mail sender.
type MailConfig struct {
	Driver  string     `koanf:"driver" json:"driver,omitempty" yaml:"driver" jsonschema:"enum=smtp,enum=log"`
	From    string     `koanf:"from" json:"from,omitempty" yaml:"from"`
	SMTP    SMTPConfig `koanf:"smtp" json:"smtp,omitempty" yaml:"smtp"`
	Async   bool       `koanf:"async" json:"async,omitempty" yaml:"async" jsonschema:"description=Deliver in the background with retries"`
	Retries uint64     `koanf:"retries" json:"retries,omitempty" yaml:"retries"`
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string `koanf:"host" json:"host,omitempty" yaml:"host"`
	Port     int    `koanf:"port" json:"port,omitempty" yaml:"port" jsonschema:"minimum=1,maximum=65535"`
	Username string `koanf:"username" json:"username,omitempty" yaml:"username"`
	Password string `koanf:"password" json:"password,omitempty" yaml:"password"`
}

// SiteConfig describes the public site that activation links point to.
type SiteConfig struct {
	BaseURL string `koanf:"base_url" json:"base_url,omitempty" yaml:"base_url" jsonschema:"format=uri"`
	Name    string `koanf:"name" json:"name,omitempty" yaml:"name"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	Pushgateway string `koanf:"pushgateway" json:"pushgateway,omitempty" yaml:"pushgateway" jsonschema:"description=Pushgateway URL. Empty disables pushing."`
}

// RateLimitConfig controls the failed-login throttle.
type RateLimitConfig struct {
	RedisURL    string   `koanf:"redis_url" json:"redis_url,omitempty" yaml:"redis_url" jsonschema:"description=Redis URL. Empty disables throttling."`
	MaxFailures int      `koanf:"max_failures" json:"max_failures,omitempty" yaml:"max_failures" jsonschema:"minimum=1"`
	Window      Duration `koanf:"window" json:"window,omitempty" yaml:"window"`
}

// Duration is a time.Duration written as a Go duration string ("15m").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return oops.Code("CONFIG_INVALID_DURATION").With("value", string(text)).Wrap(err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// JSONSchema describes Duration as a duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration, for example 15m or 1h30m",
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			ConnectRetries: 5,
		},
		Session: SessionConfig{
			TokenLength: account.DefaultTokenLength,
			CodeLength:  account.DefaultCodeLength,
			Alphabet:    AlphabetLetters,
		},
		Mail: MailConfig{
			Driver:  MailDriverLog,
			From:    "noreply@supertuxkart.net",
			SMTP:    SMTPConfig{Port: 25},
			Retries: 3,
		},
		Site: SiteConfig{
			BaseURL: "https://online.supertuxkart.net",
			Name:    "STK Addons",
		},
		Log: LogConfig{
			Format: logging.FormatJSON,
			Level:  "info",
		},
		RateLimit: RateLimitConfig{
			MaxFailures: account.DefaultMaxFailures,
			Window:      Duration(account.DefaultFailureWindow),
		},
	}
}

// Validate checks settings that the schema cannot express.
func (c *Config) Validate() error {
	if err := logging.ValidateFormat(c.Log.Format); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Mail.Driver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.Mail.SMTP.Host == "" {
			return invalid("mail.smtp.host", "is required when mail.driver is smtp")
		}
	default:
		return invalid("mail.driver", "must be smtp or log")
	}
	if c.Mail.From == "" {
		return invalid("mail.from", "is required")
	}

	switch c.Session.Alphabet {
	case AlphabetLetters, AlphabetAlphanumeric:
	default:
		return invalid("session.alphabet", "must be letters or alphanumeric")
	}
	if c.Session.TokenLength <= 0 || c.Session.CodeLength <= 0 {
		return invalid("session", "token_length and code_length must be positive")
	}

	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("site.base_url", "must be an absolute URL")
	}

	if c.RateLimit.RedisURL != "" && c.RateLimit.MaxFailures <= 0 {
		return invalid("ratelimit.max_failures", "must be positive")
	}
	return nil
}

// TokenAlphabet returns the characters tokens and codes are drawn from.
func (c *Config) TokenAlphabet() string {
	if c.Session.Alphabet == AlphabetAlphanumeric {
		return account.AlphabetAlphanumeric
	}
	return account.AlphabetLetters
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Registration.ReservedUsernames = append([]string(nil), c.Registration.ReservedUsernames...)
	if out.Mail.SMTP.Password != "" {
		out.Mail.SMTP.Password = redacted
	}
	out.Database.URL = redactURL(out.Database.URL)
	out.RateLimit.RedisURL = redactURL(out.RateLimit.RedisURL)
	return &out
}

const redacted = "REDACTED"

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}

func invalid(key, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s %s", key, msg)
}
