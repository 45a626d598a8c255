// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// Login throttle defaults.
const (
	DefaultMaxFailures   = 7
	DefaultFailureWindow = 15 * time.Minute
)

// LoginThrottle limits repeated failed logins for a username.
type LoginThrottle interface {
	// Check returns ErrTooManyAttempts when the username is locked out.
	Check(ctx context.Context, username string) error
	// Failure records a failed attempt.
	Failure(ctx context.Context, username string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, username string) error
}

// RedisThrottle counts failures in Redis with a fixed window that starts at
// the first failure.
type RedisThrottle struct {
	client      redis.Cmdable
	maxFailures int64
	window      time.Duration
	prefix      string
}

// NewRedisThrottle creates a RedisThrottle. Non-positive limits use the
// defaults.
func NewRedisThrottle(client redis.Cmdable, maxFailures int, window time.Duration) (*RedisThrottle, error) {
	if client == nil {
		return nil, oops.Code("THROTTLE_INVALID_CONFIG").Errorf("redis client is required")
	}
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultFailureWindow
	}
	return &RedisThrottle{
		client:      client,
		maxFailures: int64(maxFailures),
		window:      window,
		prefix:      "stkaddons:login_failures:",
	}, nil
}

func (t *RedisThrottle) key(username string) string {
	return t.prefix + strings.ToLower(username)
}

// Check implements LoginThrottle.
func (t *RedisThrottle) Check(ctx context.Context, username string) error {
	n, err := t.client.Get(ctx, t.key(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return oops.Code("THROTTLE_FAILED").With("operation", "get").Wrap(err)
	}
	if n >= t.maxFailures {
		return ErrTooManyAttempts
	}
	return nil
}

// Failure implements LoginThrottle.
func (t *RedisThrottle) Failure(ctx context.Context, username string) error {
	key := t.key(username)
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return oops.Code("THROTTLE_FAILED").With("operation", "incr").Wrap(err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return oops.Code("THROTTLE_FAILED").With("operation", "expire").Wrap(err)
		}
	}
	return nil
}

// Reset implements LoginThrottle.
func (t *RedisThrottle) Reset(ctx context.Context, username string) error {
	if err := t.client.Del(ctx, t.key(username)).Err(); err != nil {
		return oops.Code("THROTTLE_FAILED").With("operation", "del").Wrap(err)
	}
	return nil
}
