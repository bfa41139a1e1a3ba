// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	DefaultSessionTTL    = 24 * time.Hour
	MinSigningSecretSize = 32
	sessionIssuer        = "vault"
)

// SessionClaims is what a validated session token asserts.
type SessionClaims struct {
	AccountID ulid.ULID
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionJWTClaims is the wire shape of the token payload.
type sessionJWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// SessionCodec signs and verifies stateless HS256 session tokens.
// The secret is fixed for the lifetime of the codec.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionCodec creates a codec for the given secret and TTL.
func NewSessionCodec(secret []byte, ttl time.Duration) (*SessionCodec, error) {
	if len(secret) < MinSigningSecretSize {
		return nil, oops.Code("SESSION_SECRET_INVALID").
			With("min_bytes", MinSigningSecretSize).
			Errorf("signing secret must be at least %d bytes", MinSigningSecretSize)
	}
	if ttl <= 0 {
		return nil, oops.Code("SESSION_TTL_INVALID").
			With("ttl", ttl.String()).
			Errorf("session TTL must be positive")
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &SessionCodec{
		secret: key,
		ttl:    ttl,
	}, nil
}

// TTL returns the configured session lifetime.
func (c *SessionCodec) TTL() time.Duration {
	return c.ttl
}

// ExpiryFor returns the expiry a token issued at now carries.
func (c *SessionCodec) ExpiryFor(now time.Time) time.Time {
	exp := now.Add(c.ttl)
	if whole := exp.Truncate(time.Second); !whole.Equal(exp) {
		return whole.Add(time.Second)
	}
	return exp
}

// Issue signs a token for subject with issued-at = now and expiry = now + TTL.
// Token timestamps have second precision: the expiry is rounded up to the
// next whole second, so the token validates at every instant before now + TTL.
func (c *SessionCodec) Issue(subject ulid.ULID, role Role, now time.Time) (string, error) {
	if subject.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("SESSION_INVALID_SUBJECT").Errorf("subject cannot be zero")
	}
	if !role.Valid() {
		return "", oops.Code("SESSION_INVALID_ROLE").With("role", string(role)).Errorf("unknown role")
	}

	claims := sessionJWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiryFor(now)),
		},
		Role: string(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of token as of now.
// The returned error carries one of SESSION_MALFORMED, SESSION_INVALID_SIGNATURE
// or SESSION_EXPIRED; the underlying library error is not exposed.
func (c *SessionCodec) Validate(token string, now time.Time) (*SessionClaims, error) {
	if token == "" {
		return nil, oops.Code(CodeSessionMalformed).Errorf("session token cannot be empty")
	}

	claims := &sessionJWTClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, sessionError(err)
	}

	subject, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code(CodeSessionMalformed).Errorf("session subject is not a valid account ID")
	}
	role := Role(claims.Role)
	if !role.Valid() {
		return nil, oops.Code(CodeSessionMalformed).Errorf("session role is not recognized")
	}
	if claims.IssuedAt == nil {
		return nil, oops.Code(CodeSessionMalformed).Errorf("session token has no issue time")
	}

	return &SessionClaims{
		AccountID: subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// sessionError maps a jwt parse failure onto the session taxonomy.
// Signature checks run before claim checks, so a forged expired token is
// reported as a signature failure.
func sessionError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return oops.Code(CodeSessionInvalidSignature).Errorf("session token signature is invalid")
	case errors.Is(err, jwt.ErrTokenExpired):
		return oops.Code(CodeSessionExpired).Errorf("session token has expired")
	default:
		return oops.Code(CodeSessionMalformed).Errorf("session token is malformed")
	}
}
