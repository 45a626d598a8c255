// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

// Package account implements the STK Addons account and session lifecycle.
//
// # Components
//
// The package is split along the lifecycle of an account:
//   - Validator - credential and registration field checks
//   - IdentityStore - registration, user lookup, activation, roles and achievements
//   - SessionManager - login, session validation and activity polling
//   - VerificationWorkflow - activation code issue, email and consumption
//
// Service composes them for the outer surfaces and adds tracing, metrics and
// the optional login throttle. Components are created with New* constructors
// that validate their dependencies.
//
// # Errors
//
// Every failure a caller can act on is an *Error carrying a Code. Use
// errors.Is with the Err* sentinels to branch, and Message for the text shown
// to players. Persistence failures that are not a known constraint surface as
// ErrDatabase.
//
// # Persistence
//
// Repositories are interfaces implemented by the postgres subpackage.
// Multi-row writes run inside Store.InTx.
package account
