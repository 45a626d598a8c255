// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

//go:build tools

// Package tools pins the command line tools used to test stkaddons, so
// `go run` picks the versions recorded in go.mod.
package tools

import (
	// go run github.com/onsi/ginkgo/v2/ginkgo -tags integration ./test/integration/...
	_ "github.com/onsi/ginkgo/v2/ginkgo"
	// Imported only behind the integration build tag.
	_ "github.com/testcontainers/testcontainers-go/modules/postgres"
)
