// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stkaddons/stkaddons/internal/account"
	"github.com/stkaddons/stkaddons/internal/config"
	"github.com/stkaddons/stkaddons/internal/mail"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildSender(t *testing.T) {
	t.Run("log driver", func(t *testing.T) {
		cfg := config.Default()
		sender, closeFn, err := buildSender(cfg, quietLogger())
		require.NoError(t, err)
		assert.IsType(t, &mail.LogSender{}, sender)
		assert.NoError(t, closeFn(context.Background()))
	})

	t.Run("smtp driver", func(t *testing.T) {
		cfg := config.Default()
		cfg.Mail.Driver = config.MailDriverSMTP
		cfg.Mail.SMTP.Host = "mail.example.com"
		sender, _, err := buildSender(cfg, quietLogger())
		require.NoError(t, err)
		assert.IsType(t, &mail.SMTPSender{}, sender)
	})

	t.Run("smtp without host", func(t *testing.T) {
		cfg := config.Default()
		cfg.Mail.Driver = config.MailDriverSMTP
		_, _, err := buildSender(cfg, quietLogger())
		errutil.AssertErrorCode(t, err, "MAIL_INVALID_CONFIG")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := config.Default()
		cfg.Mail.Driver = "pigeon"
		_, _, err := buildSender(cfg, quietLogger())
		errutil.AssertErrorCode(t, err, "MAIL_INVALID_CONFIG")
	})

	t.Run("async wraps in dispatcher", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		cfg := config.Default()
		cfg.Mail.Async = true
		sender, closeFn, err := buildSender(cfg, quietLogger())
		require.NoError(t, err)
		assert.IsType(t, &mail.Dispatcher{}, sender)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, closeFn(ctx))
	})

	t.Run("async records delivery once drained", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		cfg := config.Default()
		cfg.Mail.Async = true
		sender, closeFn, err := buildSender(cfg, quietLogger())
		require.NoError(t, err)

		delivered := account.VerificationMails.WithLabelValues(account.StatusSuccess)
		before := testutil.ToFloat64(delivered)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, sender.Send(ctx, mail.Message{
			From:     "noreply@stkaddons.test",
			To:       []string{"racer@example.com"},
			Subject:  mail.VerificationSubject,
			TextBody: "code",
		}))
		require.NoError(t, closeFn(ctx))
		assert.Equal(t, before+1, testutil.ToFloat64(delivered))
	})
}

func TestBuildThrottle(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		throttle, _, err := buildThrottle(config.RateLimitConfig{})
		require.NoError(t, err)
		assert.Nil(t, throttle)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		throttle, closeFn, err := buildThrottle(config.RateLimitConfig{
			RedisURL:    "redis://" + mr.Addr() + "/0",
			MaxFailures: 1,
			Window:      config.Duration(time.Minute),
		})
		require.NoError(t, err)
		defer func() { _ = closeFn(context.Background()) }()

		ctx := context.Background()
		require.NoError(t, throttle.Check(ctx, "racer"))
		require.NoError(t, throttle.Failure(ctx, "racer"))
		assert.ErrorIs(t, throttle.Check(ctx, "racer"), account.ErrTooManyAttempts)
	})

	t.Run("bad url", func(t *testing.T) {
		_, _, err := buildThrottle(config.RateLimitConfig{RedisURL: "http://nope"})
		errutil.AssertErrorCode(t, err, "THROTTLE_INVALID_CONFIG")
	})
}

func TestNewAccountService_RequiresDatabaseURL(t *testing.T) {
	cfg := config.Default()
	_, _, err := newAccountService(context.Background(), cfg, quietLogger())
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}

func TestClosers_ReverseOrderAndJoin(t *testing.T) {
	var order []int
	var c closers
	c.add(func(context.Context) error { order = append(order, 1); return nil })
	c.add(func(context.Context) error { order = append(order, 2); return errors.New("second failed") })
	c.add(func(context.Context) error { order = append(order, 3); return nil })

	err := c.close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second failed")
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestNewPusher_DisabledWithoutURL(t *testing.T) {
	p := newPusher(config.MetricsConfig{}, quietLogger())
	assert.False(t, p.Enabled())
}
