// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails the test unless err carries the oops code. The code
// is looked up through wrappers, the same way Code does for logging.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	require.Error(t, err)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error in the chain, got %T: %v", err, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext fails the test unless err carries key in its oops
// context with the given value.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error in the chain, got %T: %v", err, err)
	got, found := oopsErr.Context()[key]
	require.True(t, found, "context key %q missing from %v", key, oopsErr.Context())
	assert.Equal(t, value, got, "context key %q", key)
}
