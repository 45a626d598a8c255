// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package errutil_test

import (
	"fmt"
	"testing"

	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("SESSION_POLL_FAILED").Errorf("touch session")
	errutil.AssertErrorCode(t, err, "SESSION_POLL_FAILED")
}

func TestAssertErrorCode_ThroughWrapper(t *testing.T) {
	err := fmt.Errorf("outer: %w", oops.Code("REGISTER_FAILED").Errorf("insert user"))
	errutil.AssertErrorCode(t, err, "REGISTER_FAILED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", int64(42)).Errorf("test error")
	errutil.AssertErrorContext(t, err, "user_id", int64(42))
}

func TestAssertErrorContext_MergedFromInnerError(t *testing.T) {
	inner := oops.Code("SESSION_CREATE_FAILED").With("operation", "insert session").Errorf("insert")
	err := oops.With("user_id", int64(7)).Wrap(inner)

	errutil.AssertErrorCode(t, err, "SESSION_CREATE_FAILED")
	errutil.AssertErrorContext(t, err, "operation", "insert session")
	errutil.AssertErrorContext(t, err, "user_id", int64(7))
}
