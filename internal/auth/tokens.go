// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Purpose binds a single-use token to the flow that may redeem it.
type Purpose string

// Token purposes.
const (
	PurposeConfirmAccount Purpose = "confirm-account"
	PurposeResetPassword  Purpose = "reset-password"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeConfirmAccount || p == PurposeResetPassword
}

// Single-use token configuration.
const (
	TokenBytes        = 32 // 32 bytes = 64 hex chars, 256 bits of entropy
	DefaultResetTTL   = time.Hour
	DefaultConfirmTTL = 7 * 24 * time.Hour
)

// SingleUseToken is the persisted record behind a mailed token. Only the
// SHA-256 of the token value is stored.
type SingleUseToken struct {
	ID         ulid.ULID
	AccountID  ulid.ULID
	Purpose    Purpose
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  *time.Time // nil means the token does not expire
	ConsumedAt *time.Time
}

// NewSingleUseToken creates a validated SingleUseToken.
// A ttl of zero produces a non-expiring token.
func NewSingleUseToken(accountID ulid.ULID, purpose Purpose, tokenHash string, now time.Time, ttl time.Duration) (*SingleUseToken, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if !purpose.Valid() {
		return nil, oops.Code("TOKEN_INVALID_PURPOSE").With("purpose", string(purpose)).Errorf("unknown token purpose")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if ttl < 0 {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("token TTL cannot be negative")
	}

	token := &SingleUseToken{
		ID:        ulid.Make(),
		AccountID: accountID,
		Purpose:   purpose,
		TokenHash: tokenHash,
		CreatedAt: now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		token.ExpiresAt = &expiresAt
	}
	return token, nil
}

// IsExpiredAt reports whether the token is expired at t. A token is expired
// from its expiry instant onwards.
func (t *SingleUseToken) IsExpiredAt(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// IsConsumed reports whether the token has been redeemed.
func (t *SingleUseToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// GenerateToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is mailed; the hash is stored.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA256 hash of a token value.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenRepository manages single-use token persistence.
type TokenRepository interface {
	// Create stores a new token.
	Create(ctx context.Context, token *SingleUseToken) error

	// GetByHash retrieves a token by its hash, consumed or not.
	GetByHash(ctx context.Context, tokenHash string) (*SingleUseToken, error)

	// Consume marks the token consumed if and only if it is still unconsumed.
	// Returns ErrNotFound when no unconsumed token with that ID exists, which
	// is how a concurrent redeemer learns it lost.
	Consume(ctx context.Context, id ulid.ULID, at time.Time) error

	// DeleteOutstanding removes every unconsumed token for the account and
	// purpose, returning how many were removed. Concurrent callers for the
	// same pair are serialized until the enclosing transaction ends.
	DeleteOutstanding(ctx context.Context, accountID ulid.ULID, purpose Purpose) (int64, error)

	// DeleteExpired removes tokens that are consumed or expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenPolicy sets the lifetime of each purpose. A zero ConfirmTTL makes
// confirmation tokens non-expiring; reset tokens always expire.
type TokenPolicy struct {
	ConfirmTTL time.Duration
	ResetTTL   time.Duration
}

// DefaultTokenPolicy returns the default lifetimes.
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{ConfirmTTL: DefaultConfirmTTL, ResetTTL: DefaultResetTTL}
}

// Validate checks the policy.
func (p TokenPolicy) Validate() error {
	if p.ConfirmTTL < 0 {
		return oops.Code("TOKEN_POLICY_INVALID").Errorf("confirm token TTL cannot be negative")
	}
	if p.ResetTTL <= 0 {
		return oops.Code("TOKEN_POLICY_INVALID").Errorf("reset token TTL must be positive")
	}
	return nil
}

// TTL returns the lifetime for purpose.
func (p TokenPolicy) TTL(purpose Purpose) time.Duration {
	if purpose == PurposeResetPassword {
		return p.ResetTTL
	}
	return p.ConfirmTTL
}

// TokenStore issues and redeems single-use tokens. Issuing supersedes any
// outstanding token of the same account and purpose; callers that need the
// supersede and insert to be atomic run Issue inside a transaction.
type TokenStore struct {
	repo   TokenRepository
	policy TokenPolicy
}

// NewTokenStore creates a TokenStore.
func NewTokenStore(repo TokenRepository, policy TokenPolicy) (*TokenStore, error) {
	if repo == nil {
		return nil, oops.Errorf("token repository is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &TokenStore{repo: repo, policy: policy}, nil
}

// Policy returns the lifetimes in force.
func (s *TokenStore) Policy() TokenPolicy {
	return s.policy
}

// Issue generates a token for accountID and purpose, persists its hash and
// returns the plaintext value for out-of-band delivery. Earlier unconsumed
// tokens of the pair are deleted; call it inside a transaction so the
// delete and insert commit together.
func (s *TokenStore) Issue(ctx context.Context, accountID ulid.ULID, purpose Purpose, now time.Time) (string, error) {
	token, hash, err := GenerateToken()
	if err != nil {
		return "", err
	}

	record, err := NewSingleUseToken(accountID, purpose, hash, now, s.policy.TTL(purpose))
	if err != nil {
		return "", err
	}

	if _, err := s.repo.DeleteOutstanding(ctx, accountID, purpose); err != nil {
		return "", classify("supersede outstanding tokens", err)
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return "", classify("store token", err)
	}

	return token, nil
}

// Redeem consumes the token for purpose and returns the bound account.
// Failures carry one of the TOKEN_* codes, or AUTH_UNAVAILABLE when the
// repository could not answer. Exactly one concurrent redeemer succeeds.
func (s *TokenStore) Redeem(ctx context.Context, value string, purpose Purpose, now time.Time) (ulid.ULID, error) {
	if value == "" {
		return ulid.ULID{}, oops.Code(CodeTokenNotFound).Errorf("token cannot be empty")
	}

	record, err := s.repo.GetByHash(ctx, HashToken(value))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, oops.Code(CodeTokenNotFound).Errorf("token not found")
		}
		return ulid.ULID{}, classify("look up token", err)
	}

	if record.Purpose != purpose {
		return ulid.ULID{}, oops.Code(CodeTokenWrongPurpose).
			With("token_id", record.ID.String()).
			With("expected", string(purpose)).
			With("actual", string(record.Purpose)).
			Errorf("token purpose mismatch")
	}

	if record.IsConsumed() {
		return ulid.ULID{}, oops.Code(CodeTokenAlreadyUsed).
			With("token_id", record.ID.String()).
			Errorf("token already used")
	}

	if record.IsExpiredAt(now) {
		return ulid.ULID{}, oops.Code(CodeTokenExpired).
			With("token_id", record.ID.String()).
			With("expired_at", *record.ExpiresAt).
			Errorf("token has expired")
	}

	if err := s.repo.Consume(ctx, record.ID, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, oops.Code(CodeTokenAlreadyUsed).
				With("token_id", record.ID.String()).
				Errorf("token already used")
		}
		return ulid.ULID{}, classify("consume token", err)
	}

	return record.AccountID, nil
}

// Burn consumes the token regardless of purpose or expiry. It is used when a
// redemption's follow-up write failed and the token must not be reusable.
func (s *TokenStore) Burn(ctx context.Context, value string, now time.Time) error {
	record, err := s.repo.GetByHash(ctx, HashToken(value))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return classify("look up token", err)
	}
	if err := s.repo.Consume(ctx, record.ID, now); err != nil && !errors.Is(err, ErrNotFound) {
		return classify("consume token", err)
	}
	return nil
}

// Sweep deletes consumed and expired tokens.
func (s *TokenStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, classify("delete expired tokens", err)
	}
	return n, nil
}
