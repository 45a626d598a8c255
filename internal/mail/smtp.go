// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package mail

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Timeout bounds the whole exchange when the context has no deadline.
	Timeout time.Duration
}

// SMTPSender delivers messages through an SMTP relay. STARTTLS is used when
// the server offers it.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_INVALID_CONFIG").Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	c, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_INVALID_CONFIG").With("addr", s.addr()).Wrap(err)
	}
	return c, nil
}

// Send delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m, err := newMsg(msg)
	if err != nil {
		return err
	}
	c, err := s.client()
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if err := c.DialWithContext(ctx); err != nil {
		return oops.Code("MAIL_DIAL_FAILED").With("addr", s.addr()).Wrap(err)
	}
	if err := c.Send(m); err != nil {
		_ = c.Close() //nolint:errcheck // send error takes precedence
		return oops.Code("MAIL_SEND_FAILED").With("step", sendStep(err)).Wrap(err)
	}
	if err := c.Close(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("step", "QUIT").Wrap(err)
	}
	return nil
}

// sendStep names the SMTP command a delivery failed at.
func sendStep(err error) string {
	var sendErr *gomail.SendError
	if !errors.As(err, &sendErr) {
		return "send"
	}
	switch sendErr.Reason {
	case gomail.ErrSMTPMailFrom, gomail.ErrGetSender:
		return "MAIL FROM"
	case gomail.ErrSMTPRcptTo, gomail.ErrGetRcpts:
		return "RCPT TO"
	case gomail.ErrSMTPData, gomail.ErrSMTPDataClose, gomail.ErrWriteContent:
		return "DATA"
	default:
		return "send"
	}
}

// newMsg renders msg. With both bodies set the result is
// multipart/alternative with the text part first.
func newMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, oops.Code("MAIL_INVALID_MESSAGE").With("from", msg.From).Wrap(err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, oops.Code("MAIL_INVALID_MESSAGE").With("to", msg.To).Wrap(err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.TextBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	default:
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	}
	return m, nil
}
