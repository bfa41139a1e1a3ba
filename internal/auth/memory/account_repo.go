// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package memory

import (
	"context"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vaidya/vault/internal/auth"
)

// AccountRepository implements auth.AccountRepository over a Store.
type AccountRepository struct {
	store *Store
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	return r.store.do(ctx, func() error {
		if _, taken := r.store.emails[account.Email]; taken {
			return auth.ErrAlreadyExists
		}
		if _, taken := r.store.accounts[account.ID]; taken {
			return auth.ErrAlreadyExists
		}
		r.store.accounts[account.ID] = cloneAccount(account)
		r.store.emails[account.Email] = account.ID
		return nil
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	var out *auth.Account
	err := r.store.do(ctx, func() error {
		account, ok := r.store.accounts[id]
		if !ok {
			return auth.ErrNotFound
		}
		clone := cloneAccount(&account)
		out = &clone
		return nil
	})
	return out, err
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var out *auth.Account
	err := r.store.do(ctx, func() error {
		id, ok := r.store.emails[email]
		if !ok {
			return auth.ErrNotFound
		}
		account := r.store.accounts[id]
		clone := cloneAccount(&account)
		out = &clone
		return nil
	})
	return out, err
}

// ExistsByEmail reports whether the email is registered.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.store.do(ctx, func() error {
		_, exists = r.store.emails[email]
		return nil
	})
	return exists, err
}

// List returns accounts in creation order, filtered by role unless role is
// empty.
func (r *AccountRepository) List(ctx context.Context, role auth.Role) ([]*auth.Account, error) {
	var out []*auth.Account
	err := r.store.do(ctx, func() error {
		for _, account := range r.store.accounts {
			if role != "" && account.Role != role {
				continue
			}
			clone := cloneAccount(&account)
			out = append(out, &clone)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *auth.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return out, err
}

// UpdatePassword replaces the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string, at time.Time) error {
	return r.store.do(ctx, func() error {
		account, ok := r.store.accounts[id]
		if !ok {
			return auth.ErrNotFound
		}
		account.PasswordHash = passwordHash
		account.UpdatedAt = at
		r.store.accounts[id] = account
		return nil
	})
}

// SwapPasswordHash replaces the hash only while it still equals oldHash.
func (r *AccountRepository) SwapPasswordHash(ctx context.Context, id ulid.ULID, oldHash, newHash string, at time.Time) (bool, error) {
	var swapped bool
	err := r.store.do(ctx, func() error {
		account, ok := r.store.accounts[id]
		if !ok || account.PasswordHash != oldHash {
			return nil
		}
		account.PasswordHash = newHash
		account.UpdatedAt = at
		r.store.accounts[id] = account
		swapped = true
		return nil
	})
	return swapped, err
}

// Enable flips the account to enabled if it is still pending.
func (r *AccountRepository) Enable(ctx context.Context, id ulid.ULID, at time.Time) (bool, error) {
	var flipped bool
	err := r.store.do(ctx, func() error {
		account, ok := r.store.accounts[id]
		if !ok {
			return auth.ErrNotFound
		}
		if account.Enabled {
			return nil
		}
		account.Enabled = true
		account.ConfirmedAt = timePtr(at)
		account.UpdatedAt = at
		r.store.accounts[id] = account
		flipped = true
		return nil
	})
	return flipped, err
}

func cloneAccount(a *auth.Account) auth.Account {
	clone := *a
	clone.ConfirmedAt = cloneTime(a.ConfirmedAt)
	return clone
}

var _ auth.AccountRepository = (*AccountRepository)(nil)
