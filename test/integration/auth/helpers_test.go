// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

//go:build integration

package auth_test

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/internal/auth/postgres"
)

const signingSecret = "0123456789abcdef0123456789abcdef"

// mailbox records delivered messages. Safe for concurrent use.
type mailbox struct {
	mu   sync.Mutex
	sent []auth.Message
}

func (m *mailbox) Send(_ context.Context, msg auth.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastToken extracts the token from the latest message for purpose to email.
func (m *mailbox) lastToken(email string, purpose auth.Purpose) string {
	all := m.tokens(email, purpose)
	if len(all) == 0 {
		Fail("no " + string(purpose) + " message for " + email)
		return ""
	}
	return all[len(all)-1]
}

// tokens extracts every token sent for purpose to email, oldest first.
func (m *mailbox) tokens(email string, purpose auth.Purpose) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.sent {
		if msg.To != email || msg.Purpose != purpose {
			continue
		}
		idx := strings.Index(msg.Body, "http")
		Expect(idx).To(BeNumerically(">=", 0))
		link, err := url.Parse(strings.TrimSpace(msg.Body[idx:]))
		Expect(err).NotTo(HaveOccurred())
		out = append(out, link.Query().Get("token"))
	}
	return out
}

// redeemable counts the values that tokens still accepts for purpose. Every
// accepted value is consumed.
func (h *harness) redeemable(ctx context.Context, values []string, purpose auth.Purpose) int {
	n := 0
	for _, value := range values {
		if _, err := h.tokens.Redeem(ctx, value, purpose, h.clock.Now()); err == nil {
			n++
		}
	}
	return n
}

// clock is a settable service clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc    *auth.Service
	tokens *auth.TokenStore
	mail   *mailbox
	clock  *clock
}

func newHarness(policy auth.TokenPolicy) *harness {
	tokens, err := auth.NewTokenStore(postgres.NewTokenRepository(pool), policy)
	Expect(err).NotTo(HaveOccurred())
	sessions, err := auth.NewSessionCodec([]byte(signingSecret), time.Hour)
	Expect(err).NotTo(HaveOccurred())

	h := &harness{
		tokens: tokens,
		mail:   &mailbox{},
		clock:  &clock{now: time.Now().UTC().Truncate(time.Microsecond)},
	}
	h.svc, err = auth.NewService(auth.ServiceDeps{
		Accounts:   postgres.NewAccountRepository(pool),
		Tokens:     tokens,
		Hasher:     auth.NewArgon2idHasher(),
		Sessions:   sessions,
		Notifier:   h.mail,
		Transactor: postgres.NewTransactor(pool),
		Logger:     slog.New(slog.DiscardHandler),
		Clock:      h.clock.Now,
	}, auth.Policy{Links: auth.Links{
		ConfirmURL: "https://vault.test/confirm",
		ResetURL:   "https://vault.test/reset",
	}})
	Expect(err).NotTo(HaveOccurred())
	return h
}

func uniqueEmail() string {
	return strings.ToLower(ulid.Make().String()) + "@example.com"
}

func registration(email, password string) auth.RegisterInput {
	return auth.RegisterInput{
		Email:    email,
		Password: password,
		Role:     auth.RolePatient,
		Profile: auth.Profile{
			FullName:   "Meera Iyer",
			Phone:      "9988776655",
			NationalID: "111122223333",
		},
	}
}
