// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
)

// outstandingIndex allows one unconsumed token per account and purpose.
const outstandingIndex = "idx_single_use_tokens_outstanding"

// TokenRepository implements auth.TokenRepository using PostgreSQL.
// Only token hashes are stored.
type TokenRepository struct {
	db DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new token.
func (r *TokenRepository) Create(ctx context.Context, token *auth.SingleUseToken) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO single_use_tokens (id, account_id, purpose, token_hash, created_at, expires_at, consumed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.ID.String(), token.AccountID.String(), string(token.Purpose), token.TokenHash,
		token.CreatedAt, token.ExpiresAt, token.ConsumedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == outstandingIndex {
				return oops.Code("TOKEN_OUTSTANDING_EXISTS").
					With("account_id", token.AccountID.String()).
					With("purpose", string(token.Purpose)).
					Wrap(auth.ErrAlreadyExists)
			}
			return oops.Code("TOKEN_HASH_EXISTS").Wrap(auth.ErrAlreadyExists)
		}
		return oops.With("operation", "create token").
			With("account_id", token.AccountID.String()).
			With("purpose", string(token.Purpose)).
			Wrap(err)
	}
	return nil
}

// GetByHash retrieves a token by hash, consumed or not.
func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string) (*auth.SingleUseToken, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, account_id, purpose, token_hash, created_at, expires_at, consumed_at
		FROM single_use_tokens
		WHERE token_hash = $1
	`, tokenHash)

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_ROW_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get token by hash").Wrap(err)
	}
	return token, nil
}

// Consume sets consumed_at only while it is still NULL. Of several concurrent
// callers exactly one sees a row affected.
func (r *TokenRepository) Consume(ctx context.Context, id ulid.ULID, at time.Time) error {
	result, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE single_use_tokens SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`,
		id.String(), at)
	if err != nil {
		return oops.With("operation", "consume token").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TOKEN_ROW_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteOutstanding removes unconsumed tokens for the account and purpose.
// It first takes a transaction-scoped advisory lock on the pair, so a second
// issuer waits for the first to commit and then deletes its token.
func (r *TokenRepository) DeleteOutstanding(ctx context.Context, accountID ulid.ULID, purpose auth.Purpose) (int64, error) {
	q := conn(ctx, r.db)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		issueLockKey(accountID, purpose)); err != nil {
		return 0, oops.With("operation", "lock outstanding tokens").
			With("account_id", accountID.String()).
			With("purpose", string(purpose)).
			Wrap(err)
	}

	result, err := q.Exec(ctx,
		`DELETE FROM single_use_tokens WHERE account_id = $1 AND purpose = $2 AND consumed_at IS NULL`,
		accountID.String(), string(purpose))
	if err != nil {
		return 0, oops.With("operation", "delete outstanding tokens").
			With("account_id", accountID.String()).
			With("purpose", string(purpose)).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes consumed tokens and tokens expired at now.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx,
		`DELETE FROM single_use_tokens WHERE consumed_at IS NOT NULL OR expires_at <= $1`, now)
	if err != nil {
		return 0, oops.With("operation", "delete expired tokens").Wrap(err)
	}
	return result.RowsAffected(), nil
}

func issueLockKey(accountID ulid.ULID, purpose auth.Purpose) string {
	return "single_use_tokens:" + accountID.String() + ":" + string(purpose)
}

// scanToken scans a single row into a SingleUseToken.
// Callers are responsible for handling pgx.ErrNoRows.
func scanToken(row pgx.Row) (*auth.SingleUseToken, error) {
	var (
		idStr        string
		accountIDStr string
		purpose      string
		token        auth.SingleUseToken
	)
	err := row.Scan(&idStr, &accountIDStr, &purpose, &token.TokenHash,
		&token.CreatedAt, &token.ExpiresAt, &token.ConsumedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}

	token.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse token id").With("id", idStr).Wrap(err)
	}
	token.AccountID, err = ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.With("operation", "parse token account id").With("account_id", accountIDStr).Wrap(err)
	}
	token.Purpose = auth.Purpose(purpose)
	return &token, nil
}

var _ auth.TokenRepository = (*TokenRepository)(nil)
