// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// KeyHasher derives storage keys from visitor identifiers so that a dump of the
// key-value store does not reveal usable cookie values.
type KeyHasher struct {
	key []byte
}

// NewKeyHasher builds a [KeyHasher] from the session secret.
// Secrets longer than the BLAKE2b key limit are first compressed.
func NewKeyHasher(secret string) *KeyHasher {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &KeyHasher{key: key}
}

// Sum returns the hex-encoded keyed BLAKE2b-256 digest of value.
func (h *KeyHasher) Sum(value string) string {
	hasher, err := blake2b.New256(h.key)
	if err != nil {
		// Only reachable with a key longer than 64 bytes, which NewKeyHasher prevents.
		panic("sec: invalid blake2b key: " + err.Error())
	}
	hasher.Write([]byte(value))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateSecureToken returns a URL-safe random string built from n random bytes.
func GenerateSecureToken(n int) (string, error) {
	buffer := make([]byte, n)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
