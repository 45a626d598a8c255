// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// clientAgentPattern matches the product token sent by the game client,
// e.g. "SuperTuxKart/1.4 (Linux)".
var clientAgentPattern = regexp.MustCompile(`(?i)\bSuperTuxKart/([0-9A-Za-z.\-+]+)`)

// Client version labels that are not versions.
const (
	ClientVersionUnknown = "unknown"
	ClientVersionGit     = "git"
)

// ClientVersion extracts the game client version from a user agent. The
// second return value is false when the agent is not a game client or the
// version does not parse.
func ClientVersion(userAgent string) (*semver.Version, bool) {
	m := clientAgentPattern.FindStringSubmatch(userAgent)
	if m == nil {
		return nil, false
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, false
	}
	return v, true
}

// ClientVersionLabel reduces a user agent to a low-cardinality label:
// "major.minor" for released clients, "git" for development builds and
// "unknown" for everything else.
func ClientVersionLabel(userAgent string) string {
	m := clientAgentPattern.FindStringSubmatch(userAgent)
	if m == nil {
		return ClientVersionUnknown
	}
	if m[1] == ClientVersionGit {
		return ClientVersionGit
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return ClientVersionUnknown
	}
	if v.Prerelease() != "" {
		return ClientVersionGit
	}
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}
