// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/samber/oops"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	newAccountText = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/new_account.txt"))
	newAccountHTML = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/new_account.html"))
)

// VerificationSubject is the subject line of the activation email.
const VerificationSubject = "New SuperTuxKart Account"

// Recipient is the addressee of an account email.
type Recipient struct {
	Username    string
	DisplayName string
	Email       string
}

// Composer renders account emails.
type Composer struct {
	from     string
	siteName string
	baseURL  *url.URL
}

// NewComposer creates a Composer. baseURL is the site root that activation
// links are built from.
func NewComposer(from, siteName, baseURL string) (*Composer, error) {
	if from == "" {
		return nil, oops.Code("MAIL_INVALID_CONFIG").Errorf("from address is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, oops.Code("MAIL_INVALID_CONFIG").With("base_url", baseURL).Errorf("base url must be absolute")
	}
	if siteName == "" {
		siteName = "STK Addons"
	}
	return &Composer{from: from, siteName: siteName, baseURL: u}, nil
}

type verificationData struct {
	DisplayName   string
	SiteName      string
	ActivationURL string
}

// ActivationURL returns the link that consumes code.
func (c *Composer) ActivationURL(code string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/activate"
	u.RawQuery = url.Values{"code": {code}}.Encode()
	return u.String()
}

// Verification renders the activation email for rcpt.
func (c *Composer) Verification(rcpt Recipient, code string) (Message, error) {
	if code == "" {
		return Message{}, oops.Code("MAIL_RENDER_FAILED").Errorf("verification code is empty")
	}
	name := rcpt.DisplayName
	if name == "" {
		name = rcpt.Username
	}
	data := verificationData{
		DisplayName:   name,
		SiteName:      c.siteName,
		ActivationURL: c.ActivationURL(code),
	}

	var text, html bytes.Buffer
	if err := newAccountText.Execute(&text, data); err != nil {
		return Message{}, oops.Code("MAIL_RENDER_FAILED").With("template", "new_account.txt").Wrap(err)
	}
	if err := newAccountHTML.Execute(&html, data); err != nil {
		return Message{}, oops.Code("MAIL_RENDER_FAILED").With("template", "new_account.html").Wrap(err)
	}

	return Message{
		From:     c.from,
		To:       []string{rcpt.Email},
		Subject:  VerificationSubject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
