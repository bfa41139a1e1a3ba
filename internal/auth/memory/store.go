// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

// Package memory provides in-memory implementations of the auth repositories
// for development and tests. All operations are serialized; InTransaction
// holds the lock for the whole callback and restores a snapshot on error.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
)

type txKey struct{}

// Store holds accounts and single-use tokens in memory.
type Store struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]auth.Account
	emails   map[string]ulid.ULID
	tokens   map[ulid.ULID]auth.SingleUseToken
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[ulid.ULID]auth.Account),
		emails:   make(map[string]ulid.ULID),
		tokens:   make(map[ulid.ULID]auth.SingleUseToken),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

// Tokens returns the token repository view of the store.
func (s *Store) Tokens() *TokenRepository {
	return &TokenRepository{store: s}
}

// InTransaction runs fn with exclusive access to the store. If fn returns an
// error every write it made is discarded.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "begin transaction").Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// do runs op under the store lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, op func() error) error {
	if err := ctx.Err(); err != nil {
		return oops.Wrap(err)
	}
	if ctx.Value(txKey{}) == s {
		return op()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return op()
}

type snapshot struct {
	accounts map[ulid.ULID]auth.Account
	emails   map[string]ulid.ULID
	tokens   map[ulid.ULID]auth.SingleUseToken
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		accounts: make(map[ulid.ULID]auth.Account, len(s.accounts)),
		emails:   make(map[string]ulid.ULID, len(s.emails)),
		tokens:   make(map[ulid.ULID]auth.SingleUseToken, len(s.tokens)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.emails {
		snap.emails[k] = v
	}
	for k, v := range s.tokens {
		snap.tokens[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.emails = snap.emails
	s.tokens = snap.tokens
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return timePtr(*t)
}
