// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"errors"
	"fmt"
	"strings"
)

// Kind groups error codes into the categories a transport layer maps to
// status codes.
type Kind string

// Error kinds.
const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindCredential Kind = "credential"
	KindSession    Kind = "session"
	KindRequest    Kind = "request"
	KindDatabase   Kind = "database"
)

// Code identifies a specific account failure.
type Code string

// Validation codes.
const (
	CodeLengthViolation  Code = "LENGTH_VIOLATION"
	CodeCharsetViolation Code = "CHARSET_VIOLATION"
	CodeFormatViolation  Code = "FORMAT_VIOLATION"
	CodeBadUsername      Code = "BAD_USERNAME"
	CodeFieldRequired    Code = "FIELD_REQUIRED"
	CodePasswordMismatch Code = "PASSWORD_MISMATCH"
	CodeTermsRequired    Code = "TERMS_REQUIRED"
)

// Conflict codes.
const (
	CodeUsernameTaken Code = "USERNAME_TAKEN"
	CodeEmailTaken    Code = "EMAIL_TAKEN"
)

// Credential codes.
const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTooManyAttempts    Code = "TOO_MANY_ATTEMPTS"
)

// Session codes.
const (
	CodeInvalidSession Code = "INVALID_SESSION"
	CodeUserNotFound   Code = "USER_NOT_FOUND"
)

// Request codes.
const (
	CodeNotActivated         Code = "NOT_ACTIVATED"
	CodeAlreadyActivated     Code = "ALREADY_ACTIVATED"
	CodeInvalidCode          Code = "INVALID_CODE"
	CodeRegistrationDisabled Code = "REGISTRATION_DISABLED"
	CodeInvalidLookup        Code = "INVALID_LOOKUP"
	CodeNoSuchUser           Code = "NO_SUCH_USER"
)

// CodeDatabase wraps any persistence failure that is not a known constraint.
const CodeDatabase Code = "DATABASE_ERROR"

// Kind returns the category of the code. Unknown codes are treated as
// database errors so they never leak to callers verbatim.
func (c Code) Kind() Kind {
	switch c {
	case CodeLengthViolation, CodeCharsetViolation, CodeFormatViolation,
		CodeBadUsername, CodeFieldRequired, CodePasswordMismatch, CodeTermsRequired:
		return KindValidation
	case CodeUsernameTaken, CodeEmailTaken:
		return KindConflict
	case CodeInvalidCredentials, CodeTooManyAttempts:
		return KindCredential
	case CodeInvalidSession, CodeUserNotFound:
		return KindSession
	case CodeNotActivated, CodeAlreadyActivated, CodeInvalidCode, CodeRegistrationDisabled, CodeInvalidLookup,
		CodeNoSuchUser:
		return KindRequest
	default:
		return KindDatabase
	}
}

// Field names the input a validation error refers to.
type Field string

// Input fields.
const (
	FieldUsername        Field = "username"
	FieldPassword        Field = "password"
	FieldPasswordConfirm Field = "password_confirm"
	FieldEmail           Field = "email"
	FieldTerms           Field = "terms"
)

// Error is the closed account error type. It carries only data; rendering a
// user-facing message is done by Message.
type Error struct {
	Code  Code
	Field Field
	Min   int
	Max   int
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("account: ")
	b.WriteString(string(e.Code))
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Field))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code. A target without a field matches any
// field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// Kind returns the category of the error.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Sentinel errors for use with errors.Is.
var (
	ErrLengthViolation      = &Error{Code: CodeLengthViolation}
	ErrCharsetViolation     = &Error{Code: CodeCharsetViolation}
	ErrFormatViolation      = &Error{Code: CodeFormatViolation}
	ErrBadUsername          = &Error{Code: CodeBadUsername, Field: FieldUsername}
	ErrFieldRequired        = &Error{Code: CodeFieldRequired}
	ErrPasswordMismatch     = &Error{Code: CodePasswordMismatch, Field: FieldPasswordConfirm}
	ErrTermsRequired        = &Error{Code: CodeTermsRequired, Field: FieldTerms}
	ErrUsernameTaken        = &Error{Code: CodeUsernameTaken, Field: FieldUsername}
	ErrEmailTaken           = &Error{Code: CodeEmailTaken, Field: FieldEmail}
	ErrInvalidCredentials   = &Error{Code: CodeInvalidCredentials}
	ErrTooManyAttempts      = &Error{Code: CodeTooManyAttempts}
	ErrInvalidSession       = &Error{Code: CodeInvalidSession}
	ErrUserNotFound         = &Error{Code: CodeUserNotFound}
	ErrNotActivated         = &Error{Code: CodeNotActivated}
	ErrAlreadyActivated     = &Error{Code: CodeAlreadyActivated}
	ErrInvalidCode          = &Error{Code: CodeInvalidCode}
	ErrRegistrationDisabled = &Error{Code: CodeRegistrationDisabled}
	ErrInvalidLookup        = &Error{Code: CodeInvalidLookup}
	ErrNoSuchUser           = &Error{Code: CodeNoSuchUser}
	ErrDatabase             = &Error{Code: CodeDatabase}
)

// ErrNotFound is returned by repositories when a requested row does not
// exist. Services translate it into the matching account code.
var ErrNotFound = errors.New("not found")

func lengthError(field Field, minLen, maxLen int) error {
	return &Error{Code: CodeLengthViolation, Field: field, Min: minLen, Max: maxLen}
}

func fieldError(code Code, field Field) error {
	return &Error{Code: code, Field: field}
}

// databaseError wraps a persistence failure. Account errors pass through
// unchanged so conflict and not-found codes survive.
func databaseError(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Code: CodeDatabase, Err: err}
}

// CodeOf returns the account code carried by err, or CodeDatabase when err
// is not an account error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeDatabase
}

// KindOf returns the category of err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

const (
	msgInternal       = "An internal error occurred. Please try again later."
	msgInvalidSession = "Session not valid. Please sign in."
)

// Message returns the text shown to end users for err. Database failures
// and foreign errors are reduced to an opaque message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if !errors.As(err, &ae) {
		return msgInternal
	}

	switch ae.Code {
	case CodeLengthViolation:
		return fmt.Sprintf("%s must be between %d and %d characters long", fieldLabel(ae.Field), ae.Min, ae.Max)
	case CodeCharsetViolation:
		if ae.Field == FieldPassword {
			return "Passwords may only contain ASCII letters, numbers, or any of the following characters: " +
				"! @ # $ % ^ & * ( ) \\ / _ + = - { } ~ > < \" ' ; [ ] , . | `"
		}
		return "Usernames may only contain ASCII letters, numbers, dots (.), dashes and underscores"
	case CodeFormatViolation:
		return "Invalid email"
	case CodeBadUsername:
		return "Username contains one or more blacklisted words or phrases"
	case CodeFieldRequired:
		return fieldLabel(ae.Field) + " required"
	case CodePasswordMismatch:
		return "Passwords don't match"
	case CodeTermsRequired:
		return "You must agree to the terms to register"
	case CodeUsernameTaken:
		return "This username is already taken."
	case CodeEmailTaken:
		return "This email is already used."
	case CodeInvalidCredentials:
		return "Username or password is invalid."
	case CodeTooManyAttempts:
		return "Too many failed sign-in attempts. Please try again later."
	case CodeInvalidSession, CodeUserNotFound:
		return msgInvalidSession
	case CodeNotActivated:
		return "This account has not been activated yet. Check your email for the verification link."
	case CodeAlreadyActivated:
		return "This account is already activated."
	case CodeInvalidCode:
		return "Invalid verification code."
	case CodeRegistrationDisabled:
		return "Registration from the game client has been disabled. Please use the website instead."
	case CodeInvalidLookup:
		return "Provide a username or ID"
	case CodeNoSuchUser:
		return "No account matches that username or ID."
	default:
		return msgInternal
	}
}

func fieldLabel(f Field) string {
	switch f {
	case FieldUsername:
		return "Username"
	case FieldPassword:
		return "Password"
	case FieldPasswordConfirm:
		return "Password confirmation"
	case FieldEmail:
		return "Email"
	case FieldTerms:
		return "Terms"
	default:
		return "Value"
	}
}
