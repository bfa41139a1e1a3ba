// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/internal/auth/memory"
)

var testLinks = auth.Links{
	ConfirmURL: "https://vault.example.com/confirm",
	ResetURL:   "https://vault.example.com/reset",
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier keeps every message it is asked to send.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []auth.Message
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, msg auth.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// lastToken extracts the token from the most recent message.
func (n *recordingNotifier) lastToken(t *testing.T, purpose auth.Purpose) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.messages, "no message sent")
	msg := n.messages[len(n.messages)-1]
	require.Equal(t, purpose, msg.Purpose)
	_, token, found := strings.Cut(msg.Body, "token=")
	require.True(t, found, "message has no token link: %q", msg.Body)
	return token
}

// passthroughTx runs callbacks without a transaction.
type passthroughTx struct{}

func (passthroughTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *auth.Service
	store    *memory.Store
	notifier *recordingNotifier
	clock    *fakeClock
	codec    *auth.SessionCodec
}

func newFixture(t *testing.T, policy auth.Policy) *fixture {
	t.Helper()

	store := memory.NewStore()
	tokens, err := auth.NewTokenStore(store.Tokens(), auth.DefaultTokenPolicy())
	require.NoError(t, err)
	codec, err := auth.NewSessionCodec(testSecret, auth.DefaultSessionTTL)
	require.NoError(t, err)

	if policy.Links == (auth.Links{}) {
		policy.Links = testLinks
	}

	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		clock:    newFakeClock(),
		codec:    codec,
	}
	f.svc, err = auth.NewService(auth.ServiceDeps{
		Accounts:   store.Accounts(),
		Tokens:     tokens,
		Hasher:     auth.NewArgon2idHasher(),
		Sessions:   codec,
		Notifier:   f.notifier,
		Transactor: store,
		Logger:     slog.New(slog.DiscardHandler),
		Clock:      f.clock.Now,
	}, policy)
	require.NoError(t, err)
	return f
}

func validProfile() auth.Profile {
	return auth.Profile{
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		NationalID: "123412341234",
	}
}

func registerInput(email, password string) auth.RegisterInput {
	return auth.RegisterInput{
		Email:    email,
		Password: password,
		Role:     auth.RoleDoctor,
		Profile:  validProfile(),
	}
}
