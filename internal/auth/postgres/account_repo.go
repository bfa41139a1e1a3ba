// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
)

const accountColumns = `id, email, password_hash, role, enabled, profile, confirmed_at, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	profile, err := json.Marshal(account.Profile)
	if err != nil {
		return oops.With("operation", "marshal profile").Wrap(err)
	}

	_, err = conn(ctx, r.db).Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, enabled, profile, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, account.ID.String(), account.Email, account.PasswordHash, string(account.Role), account.Enabled,
		profile, account.ConfirmedAt, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_EXISTS").With("email", account.Email).Wrap(auth.ErrAlreadyExists)
		}
		return oops.With("operation", "create account").With("id", account.ID.String()).Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get account").With("id", id.String()).Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get account by email").Wrap(err)
	}
	return account, nil
}

// ExistsByEmail reports whether an account uses the email.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, oops.With("operation", "check account email").Wrap(err)
	}
	return exists, nil
}

// List returns accounts in creation order, filtered by role unless role is
// empty.
func (r *AccountRepository) List(ctx context.Context, role auth.Role) ([]*auth.Account, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE $1 = '' OR role = $1
		ORDER BY created_at, id
	`, string(role))
	if err != nil {
		return nil, oops.With("operation", "list accounts").With("role", string(role)).Wrap(err)
	}
	defer rows.Close()

	var accounts []*auth.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, oops.With("operation", "scan account").Wrap(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate accounts").Wrap(err)
	}
	return accounts, nil
}

// UpdatePassword replaces the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string, at time.Time) error {
	result, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id.String(), passwordHash, at)
	if err != nil {
		return oops.With("operation", "update password").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// SwapPasswordHash replaces the hash only while it still equals oldHash, so
// a concurrent password reset is never overwritten.
func (r *AccountRepository) SwapPasswordHash(ctx context.Context, id ulid.ULID, oldHash, newHash string, at time.Time) (bool, error) {
	result, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE accounts SET password_hash = $3, updated_at = $4 WHERE id = $1 AND password_hash = $2`,
		id.String(), oldHash, newHash, at)
	if err != nil {
		return false, oops.With("operation", "swap password hash").With("id", id.String()).Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// Enable flips the enabled flag if it is still false. The conditional update
// makes the transition happen exactly once.
func (r *AccountRepository) Enable(ctx context.Context, id ulid.ULID, at time.Time) (bool, error) {
	q := conn(ctx, r.db)
	result, err := q.Exec(ctx,
		`UPDATE accounts SET enabled = TRUE, confirmed_at = $2, updated_at = $2 WHERE id = $1 AND NOT enabled`,
		id.String(), at)
	if err != nil {
		return false, oops.With("operation", "enable account").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id.String()).Scan(&exists); err != nil {
		return false, oops.With("operation", "check account").With("id", id.String()).Wrap(err)
	}
	if !exists {
		return false, oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return false, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr   string
		role    string
		profile []byte
		account auth.Account
	)
	err := row.Scan(&idStr, &account.Email, &account.PasswordHash, &role, &account.Enabled,
		&profile, &account.ConfirmedAt, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}

	account.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse account id").With("id", idStr).Wrap(err)
	}
	account.Role = auth.Role(role)
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &account.Profile); err != nil {
			return nil, oops.With("operation", "unmarshal profile").With("id", idStr).Wrap(err)
		}
	}
	return &account, nil
}

var _ auth.AccountRepository = (*AccountRepository)(nil)
