// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

// Package mail composes and delivers account emails.
package mail

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// Message is a rendered email.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Validate checks that the message can be delivered.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return oops.Code("MAIL_INVALID_MESSAGE").Errorf("message has no recipients")
	}
	for _, rcpt := range m.To {
		if strings.TrimSpace(rcpt) == "" || strings.ContainsAny(rcpt, "\r\n") {
			return oops.Code("MAIL_INVALID_MESSAGE").With("recipient", rcpt).Errorf("invalid recipient")
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return oops.Code("MAIL_INVALID_MESSAGE").Errorf("subject contains a line break")
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return oops.Code("MAIL_INVALID_MESSAGE").Errorf("message has no body")
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to a logger instead of delivering them. It is
// meant for development setups without an SMTP relay.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "mail not delivered (log driver)",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}
