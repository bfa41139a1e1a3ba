// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/pkg/errutil"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newCodec(t *testing.T, ttl time.Duration) *auth.SessionCodec {
	t.Helper()
	codec, err := auth.NewSessionCodec(testSecret, ttl)
	require.NoError(t, err)
	return codec
}

func TestNewSessionCodec(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		codec, err := auth.NewSessionCodec([]byte("short"), time.Hour)
		require.Error(t, err)
		assert.Nil(t, codec)
		errutil.AssertErrorCode(t, err, "SESSION_SECRET_INVALID")
	})

	t.Run("rejects non-positive TTL", func(t *testing.T) {
		_, err := auth.NewSessionCodec(testSecret, 0)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_TTL_INVALID")
	})

	t.Run("copies the secret", func(t *testing.T) {
		secret := append([]byte(nil), testSecret...)
		codec, err := auth.NewSessionCodec(secret, time.Hour)
		require.NoError(t, err)

		now := time.Unix(1_700_000_000, 0)
		token, err := codec.Issue(ulid.Make(), auth.RolePatient, now)
		require.NoError(t, err)

		secret[0] ^= 0xff
		_, err = codec.Validate(token, now)
		require.NoError(t, err)
	})
}

func TestSessionCodec_RoundTrip(t *testing.T) {
	codec := newCodec(t, 24*time.Hour)
	now := time.Unix(1_700_000_000, 0)
	subject := ulid.Make()

	token, err := codec.Issue(subject, auth.RoleDoctor, now)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Validate(token, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, subject, claims.AccountID)
	assert.Equal(t, auth.RoleDoctor, claims.Role)
	assert.True(t, claims.IssuedAt.Equal(now))
	assert.True(t, claims.ExpiresAt.Equal(now.Add(24*time.Hour)))
	assert.True(t, codec.ExpiryFor(now).Equal(claims.ExpiresAt))
}

func TestSessionCodec_Expiry(t *testing.T) {
	codec := newCodec(t, 24*time.Hour)
	issued := time.Unix(1_700_000_000, 0)

	token, err := codec.Issue(ulid.Make(), auth.RolePatient, issued)
	require.NoError(t, err)

	t.Run("valid one second before expiry", func(t *testing.T) {
		_, err := codec.Validate(token, issued.Add(24*time.Hour-time.Second))
		require.NoError(t, err)
	})

	t.Run("expired at the expiry instant", func(t *testing.T) {
		_, err := codec.Validate(token, issued.Add(24*time.Hour))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeSessionExpired)
	})

	t.Run("expired long after", func(t *testing.T) {
		_, err := codec.Validate(token, issued.Add(25*time.Hour))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeSessionExpired)
	})
}

func TestSessionCodec_SubSecondIssueTime(t *testing.T) {
	codec := newCodec(t, time.Hour)
	issued := time.Unix(1_700_000_000, 900*int64(time.Millisecond))

	token, err := codec.Issue(ulid.Make(), auth.RolePatient, issued)
	require.NoError(t, err)

	expiry := codec.ExpiryFor(issued)
	assert.True(t, expiry.Equal(time.Unix(1_700_003_601, 0)))

	_, err = codec.Validate(token, issued.Add(time.Hour-time.Millisecond))
	require.NoError(t, err)

	claims, err := codec.Validate(token, issued.Add(time.Hour-500*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Equal(expiry))

	_, err = codec.Validate(token, expiry)
	errutil.AssertErrorCode(t, err, auth.CodeSessionExpired)
}

func TestSessionCodec_Rejections(t *testing.T) {
	codec := newCodec(t, time.Hour)
	now := time.Unix(1_700_000_000, 0)
	subject := ulid.Make()

	token, err := codec.Issue(subject, auth.RolePatient, now)
	require.NoError(t, err)

	t.Run("empty token is malformed", func(t *testing.T) {
		_, err := codec.Validate("", now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionMalformed)
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := codec.Validate("not.a.jwt", now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionMalformed)
	})

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err := codec.Validate(tampered, now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionInvalidSignature)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other, err := auth.NewSessionCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
		require.NoError(t, err)
		foreign, err := other.Issue(subject, auth.RolePatient, now)
		require.NoError(t, err)

		_, err = codec.Validate(foreign, now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionInvalidSignature)
	})

	t.Run("forged and expired reports signature", func(t *testing.T) {
		other, err := auth.NewSessionCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
		require.NoError(t, err)
		foreign, err := other.Issue(subject, auth.RolePatient, now)
		require.NoError(t, err)

		_, err = codec.Validate(foreign, now.Add(2*time.Hour))
		errutil.AssertErrorCode(t, err, auth.CodeSessionInvalidSignature)
	})

	t.Run("algorithm none is rejected", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss": "vault",
			"sub": subject.String(),
			"iat": now.Unix(),
			"exp": now.Add(time.Hour).Unix(),
			"role": "patient",
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Validate(unsigned, now)
		require.Error(t, err)
		assert.NotEqual(t, auth.CodeSessionExpired, auth.ErrorCode(err))
	})

	t.Run("missing expiry is malformed", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss":  "vault",
			"sub":  subject.String(),
			"iat":  now.Unix(),
			"role": "patient",
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = codec.Validate(signed, now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionMalformed)
	})

	t.Run("non-ULID subject is malformed", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss":  "vault",
			"sub":  "someone",
			"iat":  now.Unix(),
			"exp":  now.Add(time.Hour).Unix(),
			"role": "patient",
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = codec.Validate(signed, now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionMalformed)
	})

	t.Run("unknown role is malformed", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss":  "vault",
			"sub":  subject.String(),
			"iat":  now.Unix(),
			"exp":  now.Add(time.Hour).Unix(),
			"role": "admin",
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = codec.Validate(signed, now)
		errutil.AssertErrorCode(t, err, auth.CodeSessionMalformed)
	})
}

func TestSessionCodec_IssueRejectsInvalidInput(t *testing.T) {
	codec := newCodec(t, time.Hour)
	now := time.Now()

	_, err := codec.Issue(ulid.ULID{}, auth.RolePatient, now)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_SUBJECT")

	_, err = codec.Issue(ulid.Make(), auth.Role("admin"), now)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_ROLE")
}
