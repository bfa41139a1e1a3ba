// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package memory

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vaidya/vault/internal/auth"
)

// TokenRepository implements auth.TokenRepository over a Store.
type TokenRepository struct {
	store *Store
}

// Create stores a new token. Like the PostgreSQL schema it allows one
// unconsumed token per account and purpose.
func (r *TokenRepository) Create(ctx context.Context, token *auth.SingleUseToken) error {
	return r.store.do(ctx, func() error {
		for _, existing := range r.store.tokens {
			if existing.TokenHash == token.TokenHash {
				return auth.ErrAlreadyExists
			}
			if token.ConsumedAt == nil && existing.ConsumedAt == nil &&
				existing.AccountID == token.AccountID && existing.Purpose == token.Purpose {
				return auth.ErrAlreadyExists
			}
		}
		r.store.tokens[token.ID] = cloneToken(token)
		return nil
	})
}

// GetByHash retrieves a token by hash.
func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string) (*auth.SingleUseToken, error) {
	var out *auth.SingleUseToken
	err := r.store.do(ctx, func() error {
		for _, token := range r.store.tokens {
			if token.TokenHash == tokenHash {
				clone := cloneToken(&token)
				out = &clone
				return nil
			}
		}
		return auth.ErrNotFound
	})
	return out, err
}

// Consume marks the token consumed if it is still unconsumed.
func (r *TokenRepository) Consume(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.store.do(ctx, func() error {
		token, ok := r.store.tokens[id]
		if !ok || token.ConsumedAt != nil {
			return auth.ErrNotFound
		}
		token.ConsumedAt = timePtr(at)
		r.store.tokens[id] = token
		return nil
	})
}

// DeleteOutstanding removes unconsumed tokens of the account and purpose.
func (r *TokenRepository) DeleteOutstanding(ctx context.Context, accountID ulid.ULID, purpose auth.Purpose) (int64, error) {
	var n int64
	err := r.store.do(ctx, func() error {
		for id, token := range r.store.tokens {
			if token.AccountID == accountID && token.Purpose == purpose && token.ConsumedAt == nil {
				delete(r.store.tokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// DeleteExpired removes consumed tokens and tokens expired at now.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.store.do(ctx, func() error {
		for id, token := range r.store.tokens {
			if token.IsConsumed() || token.IsExpiredAt(now) {
				delete(r.store.tokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func cloneToken(t *auth.SingleUseToken) auth.SingleUseToken {
	clone := *t
	clone.ExpiresAt = cloneTime(t.ExpiresAt)
	clone.ConsumedAt = cloneTime(t.ConsumedAt)
	return clone
}

var _ auth.TokenRepository = (*TokenRepository)(nil)
