// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package mail

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/stkaddons/stkaddons/pkg/errutil"
)

// DispatcherConfig tunes a Dispatcher.
type DispatcherConfig struct {
	// QueueSize is the number of messages that may wait for delivery.
	QueueSize int
	// Retries is the number of extra attempts after the first failure.
	Retries uint64
	// BaseDelay is the first backoff interval; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff interval.
	MaxDelay time.Duration
	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
}

func (c *DispatcherConfig) setDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
}

// ErrDispatcherClosed is returned by Send after Close.
var ErrDispatcherClosed = oops.Code("MAIL_DISPATCHER_CLOSED").Errorf("mail dispatcher is closed")

// ErrQueueFull is returned by Send when the queue has no room.
var ErrQueueFull = oops.Code("MAIL_QUEUE_FULL").Errorf("mail queue is full")

// Dispatcher delivers messages in the background with retries. Send returns
// as soon as the message is queued; delivery failures are logged.
type Dispatcher struct {
	next   Sender
	cfg    DispatcherConfig
	logger *slog.Logger

	queue chan Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	// OnResult, when set, is called after each message with the final
	// delivery error (nil on success).
	OnResult func(msg Message, err error)
}

// NewDispatcher starts a Dispatcher that hands messages to next.
func NewDispatcher(next Sender, cfg DispatcherConfig, logger *slog.Logger) (*Dispatcher, error) {
	if next == nil {
		return nil, oops.Code("MAIL_INVALID_CONFIG").Errorf("sender is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()

	d := &Dispatcher{
		next:   next,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Message, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d, nil
}

// Send queues msg for delivery.
func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits until queued messages have been
// delivered or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return oops.Code("MAIL_DRAIN_TIMEOUT").Wrap(ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		err := d.deliver(msg)
		if err != nil {
			errutil.LogError(d.logger, "mail delivery failed", oops.
				With("to", strings.Join(msg.To, ",")).
				With("subject", msg.Subject).
				Wrap(err))
		}
		if d.OnResult != nil {
			d.OnResult(msg, err)
		}
	}
}

func (d *Dispatcher) deliver(msg Message) error {
	backoff := retry.NewExponential(d.cfg.BaseDelay)
	backoff = retry.WithCappedDuration(d.cfg.MaxDelay, backoff)
	backoff = retry.WithMaxRetries(d.cfg.Retries, backoff)

	attempt := 0
	return retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()

		if err := d.next.Send(sendCtx, msg); err != nil {
			d.logger.Warn("mail delivery attempt failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
