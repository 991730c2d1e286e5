// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

/*
TestUserRole_AtLeast checks the role hierarchy used by the admin gate.
*/
func TestUserRole_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     sec.UserRole
		target   sec.UserRole
		expected bool
	}{
		{"admin_over_alumni", sec.RoleAdmin, sec.RoleAlumni, true},
		{"admin_over_admin", sec.RoleAdmin, sec.RoleAdmin, true},
		{"alumni_under_admin", sec.RoleAlumni, sec.RoleAdmin, false},
		{"unknown_role", sec.UserRole("guest"), sec.RoleAlumni, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.AtLeast(tt.target))
		})
	}

	assert.True(t, sec.RoleAdmin.IsAdmin())
	assert.False(t, sec.RoleAlumni.IsAdmin())
	assert.False(t, sec.UserRole("").Valid())
}

/*
TestInspectToken reads the subject and expiry without a verification key.
*/
func TestInspectToken(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signed(t, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})

	info, err := sec.InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", info.Subject)
	assert.True(t, expiry.Equal(info.ExpiresAt))

	_, err = sec.InspectToken("opaque-credential")
	assert.ErrorIs(t, err, sec.ErrOpaqueToken)
}

/*
TestCredentialTTL covers JWT, expired JWT and opaque credentials.
*/
func TestCredentialTTL(t *testing.T) {
	now := time.Now()
	fallback := 7 * 24 * time.Hour

	live := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	expired := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour))})
	noExpiry := signed(t, jwt.RegisteredClaims{Subject: "someone"})

	assert.InDelta(t, time.Hour.Seconds(), sec.CredentialTTL(live, fallback, now).Seconds(), 1)
	assert.Equal(t, time.Duration(0), sec.CredentialTTL(expired, fallback, now))
	assert.Equal(t, fallback, sec.CredentialTTL(noExpiry, fallback, now))
	assert.Equal(t, fallback, sec.CredentialTTL("opaque", fallback, now))
}

/*
TestKeyHasher verifies keyed digests are stable per secret and differ across secrets.
*/
func TestKeyHasher(t *testing.T) {
	first := sec.NewKeyHasher("0123456789abcdef")
	second := sec.NewKeyHasher("fedcba9876543210")
	long := sec.NewKeyHasher(string(make([]byte, 100)))

	assert.Equal(t, first.Sum("visitor"), first.Sum("visitor"))
	assert.NotEqual(t, first.Sum("visitor"), second.Sum("visitor"))
	assert.Len(t, long.Sum("visitor"), 64)
}

/*
TestGenerateSecureToken checks length and uniqueness of generated identifiers.
*/
func TestGenerateSecureToken(t *testing.T) {
	a, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
