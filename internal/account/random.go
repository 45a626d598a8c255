// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"crypto/rand"
	"math/big"

	"github.com/samber/oops"
)

// Default random string lengths.
const (
	DefaultTokenLength = 30
	DefaultCodeLength  = 50
)

// Alphabets for generated tokens and codes.
const (
	// AlphabetLetters matches the tokens issued by earlier versions of the
	// site: ASCII letters only.
	AlphabetLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// AlphabetAlphanumeric adds digits for a larger keyspace.
	AlphabetAlphanumeric = AlphabetLetters + "0123456789"
)

// TokenSource produces unguessable random strings.
type TokenSource interface {
	String(n int) (string, error)
}

// CryptoSource draws characters uniformly from an alphabet using crypto/rand.
type CryptoSource struct {
	alphabet string
}

// NewCryptoSource creates a CryptoSource. An empty alphabet selects
// AlphabetLetters.
func NewCryptoSource(alphabet string) *CryptoSource {
	if alphabet == "" {
		alphabet = AlphabetLetters
	}
	return &CryptoSource{alphabet: alphabet}
}

// String returns n random characters from the source's alphabet.
func (s *CryptoSource) String(n int) (string, error) {
	if n <= 0 {
		return "", oops.Code("RANDOM_INVALID_LENGTH").With("length", n).Errorf("length must be positive")
	}

	size := big.NewInt(int64(len(s.alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", oops.Code("RANDOM_FAILED").
				With("operation", "crypto/rand.Int").
				Wrap(err)
		}
		out[i] = s.alphabet[idx.Int64()]
	}
	return string(out), nil
}
