// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Credential length bounds, counted in characters.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	PasswordMinLength = 8
	PasswordMaxLength = 64
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	passwordPattern = regexp.MustCompile("^[a-zA-Z0-9!@#$%^&*()_+=\\-/\\\\{}~><';\\[\\],.\"|`]+$")
	emailPattern    = regexp.MustCompile("(?i)^[a-z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
		"@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$")
)

// ValidateUsername checks length first, then the allowed character set.
func ValidateUsername(s string) error {
	return checkCredential(s, FieldUsername, UsernameMinLength, UsernameMaxLength, usernamePattern)
}

// ValidatePassword checks length first, then the allowed character set.
func ValidatePassword(s string) error {
	return checkCredential(s, FieldPassword, PasswordMinLength, PasswordMaxLength, passwordPattern)
}

// ValidateEmail checks that s is a local-part@domain address.
func ValidateEmail(s string) error {
	if err := validation.Validate(s, validation.Required, validation.Match(emailPattern)); err != nil {
		return fieldError(CodeFormatViolation, FieldEmail)
	}
	return nil
}

func checkCredential(s string, field Field, minLen, maxLen int, pattern *regexp.Regexp) error {
	if err := validation.Validate(s, validation.Required, validation.RuneLength(minLen, maxLen)); err != nil {
		return lengthError(field, minLen, maxLen)
	}
	if err := validation.Validate(s, validation.Match(pattern)); err != nil {
		return fieldError(CodeCharsetViolation, field)
	}
	return nil
}

// RegisterRequest is a registration attempt as submitted by a client.
type RegisterRequest struct {
	Username        string
	Password        string
	PasswordConfirm string
	Email           string
	RealName        string
	AcceptedTerms   bool
	// SkipConfirm disables the confirmation and terms checks for trusted
	// callers such as operator tooling.
	SkipConfirm bool
}

// Validator runs the credential checks together with the reserved username
// list.
type Validator struct {
	reserved []glob.Glob
}

// NewValidator compiles the reserved username patterns. Patterns use glob
// syntax and are matched case-insensitively.
func NewValidator(reserved []string) (*Validator, error) {
	v := &Validator{}
	for _, p := range reserved {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, oops.Code("RESERVED_PATTERN_INVALID").With("pattern", p).Wrap(err)
		}
		v.reserved = append(v.reserved, g)
	}
	return v, nil
}

// Username validates s and rejects reserved names.
func (v *Validator) Username(s string) error {
	if err := ValidateUsername(s); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	lower := strings.ToLower(s)
	for _, g := range v.reserved {
		if g.Match(lower) {
			return ErrBadUsername
		}
	}
	return nil
}

// Registration validates a full registration request in the order clients
// expect messages: presence, username, password, confirmation, email, terms.
func (v *Validator) Registration(req RegisterRequest) error {
	if req.Username == "" {
		return fieldError(CodeFieldRequired, FieldUsername)
	}
	if req.Password == "" {
		return fieldError(CodeFieldRequired, FieldPassword)
	}
	if err := v.Username(req.Username); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if !req.SkipConfirm && req.Password != req.PasswordConfirm {
		return ErrPasswordMismatch
	}
	if req.Email == "" {
		return fieldError(CodeFieldRequired, FieldEmail)
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if !req.SkipConfirm && !req.AcceptedTerms {
		return ErrTermsRequired
	}
	return nil
}
