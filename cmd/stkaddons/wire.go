// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/account/postgres"
	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/internal/mail"
	"github.com/stkaddons/stkaddons/internal/observability"
	"github.com/stkaddons/stkaddons/internal/store"
)

// closers runs cleanup functions in reverse registration order.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) {
	*c = append(*c, fn)
}

func (c closers) close(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newAccountService connects to PostgreSQL and wires the account
// components according to cfg. The returned function releases the pool,
// the Redis client and drains the mail queue.
func newAccountService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ AccountService, _ func(context.Context) error, err error) {
	var cleanup closers
	defer func() {
		if err != nil {
			_ = cleanup.close(context.Background())
		}
	}()

	pool, err := store.Connect(ctx, store.ConnectConfig{
		URL:      cfg.Database.URL,
		Retries:  cfg.Database.ConnectRetries,
		MaxConns: cfg.Database.MaxConns,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup.add(func(context.Context) error {
		pool.Close()
		return nil
	})

	st := postgres.NewStore(pool)
	hasher := account.NewArgon2idHasher()
	tokens := account.NewCryptoSource(cfg.TokenAlphabet())

	validator, err := account.NewValidator(cfg.Registration.ReservedUsernames)
	if err != nil {
		return nil, nil, err
	}
	identity, err := account.NewIdentityStore(st, hasher, tokens,
		account.WithCodeLength(cfg.Session.CodeLength),
		account.WithDefaultRole(cfg.Registration.DefaultRole),
	)
	if err != nil {
		return nil, nil, err
	}
	sessions, err := account.NewSessionManager(st, hasher, tokens,
		account.WithTokenLength(cfg.Session.TokenLength),
		account.WithSessionLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	sender, closeSender, err := buildSender(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup.add(closeSender)

	composer, err := mail.NewComposer(cfg.Mail.From, cfg.Site.Name, cfg.Site.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	verification, err := account.NewVerificationWorkflow(st, identity, sender, composer, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []account.ServiceOption{
		account.WithLogger(logger),
		account.WithRegistrationDisabled(cfg.Registration.Disabled),
		account.WithGuardOptions(account.RequireActivated(cfg.Session.RequireActivation)),
		account.WithQueuedMail(cfg.Mail.Async),
	}
	throttle, closeThrottle, err := buildThrottle(cfg.RateLimit)
	if err != nil {
		return nil, nil, err
	}
	if throttle != nil {
		cleanup.add(closeThrottle)
		opts = append(opts, account.WithThrottle(throttle))
	}

	svc, err := account.NewService(validator, identity, sessions, verification, opts...)
	if err != nil {
		return nil, nil, err
	}
	return svc, cleanup.close, nil
}

// buildSender selects the mail driver. With mail.async the sender is
// wrapped in a Dispatcher, whose Close drains the queue. The only mail sent
// is verification mail, so the Dispatcher reports every outcome to the
// verification metrics.
func buildSender(cfg *config.Config, logger *slog.Logger) (mail.Sender, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var sender mail.Sender
	switch cfg.Mail.Driver {
	case config.MailDriverSMTP:
		smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		sender = smtp
	case config.MailDriverLog, "":
		sender = mail.NewLogSender(logger)
	default:
		return nil, nil, oops.Code("MAIL_INVALID_CONFIG").With("driver", cfg.Mail.Driver).Errorf("unknown mail driver")
	}

	if !cfg.Mail.Async {
		return sender, noop, nil
	}
	d, err := mail.NewDispatcher(sender, mail.DispatcherConfig{Retries: cfg.Mail.Retries}, logger)
	if err != nil {
		return nil, nil, err
	}
	d.OnResult = func(_ mail.Message, err error) {
		account.RecordVerificationMail(err)
	}
	return d, d.Close, nil
}

// buildThrottle returns a nil throttle when ratelimit.redis_url is empty.
func buildThrottle(cfg config.RateLimitConfig) (account.LoginThrottle, func(context.Context) error, error) {
	if cfg.RedisURL == "" {
		return nil, nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, oops.Code("THROTTLE_INVALID_CONFIG").With("operation", "parse redis url").Wrap(err)
	}
	client := redis.NewClient(opts)
	throttle, err := account.NewRedisThrottle(client, cfg.MaxFailures, cfg.Window.Std())
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return throttle, func(context.Context) error { return client.Close() }, nil
}

func newPusher(cfg config.MetricsConfig, logger *slog.Logger) MetricsPusher {
	return observability.NewPusher(observability.PushConfig{URL: cfg.Pushgateway}, observability.NewRegistry(), logger)
}
