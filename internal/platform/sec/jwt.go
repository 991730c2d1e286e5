// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the security primitives of the portal.
//
// # Architecture
//
// The portal never signs or verifies backend credentials: the REST backend is the
// authority and answers 401 for anything it no longer accepts. This package only
// inspects credentials (to size their persisted lifetime), derives storage keys
// for visitor identifiers, and generates random identifiers.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by [InspectToken] when the credential is not a JWT.
var ErrOpaqueToken = errors.New("sec: credential is not a JWT")

// TokenInfo is the subset of a bearer credential's claims the portal relies on.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectToken reads the claims of a backend-issued JWT without verifying its
// signature. The result must never be used for authorization decisions.
func InspectToken(tokenString string) (TokenInfo, error) {
	claims := jwt.RegisteredClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// CredentialTTL returns how long a credential should be persisted.
//
// JWTs live until their exp claim; opaque or exp-less tokens fall back to the
// given default. An already expired JWT yields zero.
func CredentialTTL(tokenString string, fallback time.Duration, now time.Time) time.Duration {
	info, err := InspectToken(tokenString)
	if err != nil || info.ExpiresAt.IsZero() {
		return fallback
	}

	remaining := info.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
