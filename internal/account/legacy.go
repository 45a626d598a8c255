// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"crypto/sha1" //nolint:gosec // G505: werkzeug pbkdf2:sha1 hashes are verified, never produced
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"hash"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Defaults applied by werkzeug when a method string omits its parameters.
const (
	werkzeugPBKDF2Iterations = 600000
	werkzeugScryptN          = 1 << 15
	werkzeugScryptR          = 8
	werkzeugScryptP          = 1
	werkzeugScryptKeyLen     = 64
)

// splitWerkzeug splits "method$salt$hash" into its three parts.
func splitWerkzeug(encoded string) (method, salt string, sum []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return "", "", nil, oops.Code("HASH_INVALID").Errorf("invalid werkzeug hash format")
	}
	sum, err = hex.DecodeString(parts[2])
	if err != nil {
		return "", "", nil, oops.Code("HASH_INVALID").Wrap(err)
	}
	if len(sum) == 0 {
		return "", "", nil, oops.Code("HASH_INVALID").Errorf("empty werkzeug digest")
	}
	return parts[0], parts[1], sum, nil
}

// verifyWerkzeugPBKDF2 checks "pbkdf2:<digest>[:<iterations>]$salt$hex".
func verifyWerkzeugPBKDF2(password, encoded string) (bool, error) {
	method, salt, expected, err := splitWerkzeug(encoded)
	if err != nil {
		return false, err
	}

	params := strings.Split(method, ":")
	if len(params) < 2 || len(params) > 3 {
		return false, oops.Code("HASH_INVALID").With("method", method).Errorf("invalid pbkdf2 method")
	}

	var newHash func() hash.Hash
	switch params[1] {
	case "sha256":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	case "sha1":
		newHash = sha1.New
	default:
		return false, oops.Code("HASH_INVALID").With("digest", params[1]).Errorf("unsupported pbkdf2 digest")
	}

	iterations := werkzeugPBKDF2Iterations
	if len(params) == 3 {
		iterations, err = strconv.Atoi(params[2])
		if err != nil || iterations <= 0 {
			return false, oops.Code("HASH_INVALID").With("method", method).Errorf("invalid pbkdf2 iterations")
		}
	}

	computed := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(expected), newHash)
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// verifyWerkzeugScrypt checks "scrypt[:n:r:p]$salt$hex".
func verifyWerkzeugScrypt(password, encoded string) (bool, error) {
	method, salt, expected, err := splitWerkzeug(encoded)
	if err != nil {
		return false, err
	}

	n, r, p := werkzeugScryptN, werkzeugScryptR, werkzeugScryptP
	params := strings.Split(method, ":")
	switch len(params) {
	case 1:
	case 4:
		values := make([]int, 3)
		for i, raw := range params[1:] {
			v, convErr := strconv.Atoi(raw)
			if convErr != nil || v <= 0 {
				return false, oops.Code("HASH_INVALID").With("method", method).Errorf("invalid scrypt parameters")
			}
			values[i] = v
		}
		n, r, p = values[0], values[1], values[2]
	default:
		return false, oops.Code("HASH_INVALID").With("method", method).Errorf("invalid scrypt method")
	}

	keyLen := len(expected)
	if keyLen != werkzeugScryptKeyLen {
		return false, oops.Code("HASH_INVALID").Errorf("unexpected scrypt key length: %d", keyLen)
	}

	computed, err := scrypt.Key([]byte(password), []byte(salt), n, r, p, keyLen)
	if err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func verifyBcrypt(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code("HASH_INVALID").Wrap(err)
}
