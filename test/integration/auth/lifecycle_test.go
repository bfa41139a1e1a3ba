// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

//go:build integration

package auth_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/internal/auth/postgres"
)

var _ = Describe("Account lifecycle against PostgreSQL", func() {
	var (
		ctx context.Context
		h   *harness
	)

	BeforeEach(func() {
		ctx = context.Background()
		h = newHarness(auth.DefaultTokenPolicy())
	})

	Describe("registration and confirmation", func() {
		It("enables the account exactly once and allows login", func() {
			email := uniqueEmail()
			id, err := h.svc.Register(ctx, registration(email, "s3cret!"))
			Expect(err).NotTo(HaveOccurred())

			_, err = h.svc.Login(ctx, email, "s3cret!")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeAccountNotEnabled))

			token := h.mail.lastToken(email, auth.PurposeConfirmAccount)
			Expect(h.svc.ConfirmAccount(ctx, token)).To(Succeed())

			err = h.svc.ConfirmAccount(ctx, token)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))

			result, err := h.svc.Login(ctx, email, "s3cret!")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AccountID).To(Equal(id))
			Expect(result.FullName).To(Equal("Meera Iyer"))

			claims, err := h.svc.ValidateSession(result.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.AccountID).To(Equal(id))
			Expect(claims.Role).To(Equal(auth.RolePatient))
		})

		It("rejects a duplicate email regardless of case", func() {
			email := uniqueEmail()
			_, err := h.svc.Register(ctx, registration(email, "pw"))
			Expect(err).NotTo(HaveOccurred())

			_, err = h.svc.Register(ctx, registration("  "+email+"  ", "pw"))
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeDuplicateIdentity))
		})

		It("lets only one of many concurrent registrations of an email win", func() {
			const workers = 8
			email := uniqueEmail()

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
				dups int
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := h.svc.Register(ctx, registration(email, "pw"))
					mu.Lock()
					defer mu.Unlock()
					switch auth.ErrorCode(err) {
					case "":
						wins++
					case auth.CodeDuplicateIdentity:
						dups++
					default:
						Fail("unexpected error: " + err.Error())
					}
				}()
			}
			wg.Wait()

			Expect(wins).To(Equal(1))
			Expect(dups).To(Equal(workers - 1))
		})

		It("redeems a confirmation token once under concurrency", func() {
			email := uniqueEmail()
			_, err := h.svc.Register(ctx, registration(email, "pw"))
			Expect(err).NotTo(HaveOccurred())
			token := h.mail.lastToken(email, auth.PurposeConfirmAccount)

			const workers = 8
			results := make([]error, workers)
			var wg sync.WaitGroup
			for i := range workers {
				wg.Add(1)
				go func(idx int) {
					defer GinkgoRecover()
					defer wg.Done()
					results[idx] = h.svc.ConfirmAccount(ctx, token)
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range results {
				if err == nil {
					succeeded++
					continue
				}
				Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
			}
			Expect(succeeded).To(Equal(1))
		})

		It("supersedes the first confirmation token on resend", func() {
			email := uniqueEmail()
			_, err := h.svc.Register(ctx, registration(email, "pw"))
			Expect(err).NotTo(HaveOccurred())
			first := h.mail.lastToken(email, auth.PurposeConfirmAccount)

			Expect(h.svc.ResendConfirmation(ctx, email)).To(Succeed())
			second := h.mail.lastToken(email, auth.PurposeConfirmAccount)
			Expect(second).NotTo(Equal(first))

			err = h.svc.ConfirmAccount(ctx, first)
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
			Expect(h.svc.ConfirmAccount(ctx, second)).To(Succeed())
		})

		It("leaves one redeemable confirmation token after concurrent resends", func() {
			email := uniqueEmail()
			_, err := h.svc.Register(ctx, registration(email, "pw"))
			Expect(err).NotTo(HaveOccurred())

			const workers = 8
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					Expect(h.svc.ResendConfirmation(ctx, email)).To(Succeed())
				}()
			}
			wg.Wait()

			sent := h.mail.tokens(email, auth.PurposeConfirmAccount)
			Expect(sent).To(HaveLen(workers + 1))
			Expect(h.redeemable(ctx, sent, auth.PurposeConfirmAccount)).To(Equal(1))
		})
	})

	Describe("password reset", func() {
		var email string

		BeforeEach(func() {
			email = uniqueEmail()
			_, err := h.svc.Register(ctx, registration(email, "old-password"))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.svc.ConfirmAccount(ctx, h.mail.lastToken(email, auth.PurposeConfirmAccount))).To(Succeed())
		})

		It("replaces the password with a single-use token", func() {
			Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())
			token := h.mail.lastToken(email, auth.PurposeResetPassword)

			Expect(h.svc.ResetPassword(ctx, token, "new-password")).To(Succeed())

			_, err := h.svc.Login(ctx, email, "old-password")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidCredentials))
			_, err = h.svc.Login(ctx, email, "new-password")
			Expect(err).NotTo(HaveOccurred())

			err = h.svc.ResetPassword(ctx, token, "another-password")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
		})

		It("rejects a reset token after it expires", func() {
			Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())
			token := h.mail.lastToken(email, auth.PurposeResetPassword)

			h.clock.Advance(auth.DefaultResetTTL)

			err := h.svc.ResetPassword(ctx, token, "new-password")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
			_, err = h.svc.Login(ctx, email, "old-password")
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not accept a confirmation token as a reset token", func() {
			Expect(h.svc.ResendConfirmation(ctx, email)).To(Succeed())
			Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())

			confirmToken := h.mail.lastToken(email, auth.PurposeConfirmAccount)
			err := h.svc.ResetPassword(ctx, confirmToken, "new-password")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
		})

		It("invalidates an earlier reset token when a new one is requested", func() {
			Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())
			first := h.mail.lastToken(email, auth.PurposeResetPassword)
			Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())
			second := h.mail.lastToken(email, auth.PurposeResetPassword)

			err := h.svc.ResetPassword(ctx, first, "new-password")
			Expect(auth.ErrorCode(err)).To(Equal(auth.CodeInvalidOrExpiredToken))
			Expect(h.svc.ResetPassword(ctx, second, "new-password")).To(Succeed())
		})

		It("leaves one redeemable reset token after concurrent requests", func() {
			const workers = 8
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())
				}()
			}
			wg.Wait()

			sent := h.mail.tokens(email, auth.PurposeResetPassword)
			Expect(sent).To(HaveLen(workers))
			Expect(h.redeemable(ctx, sent, auth.PurposeResetPassword)).To(Equal(1))
		})

		It("keeps a reset committed while a login is upgrading the old hash", func() {
			account, err := h.svc.AccountByEmail(ctx, email)
			Expect(err).NotTo(HaveOccurred())
			accounts := postgres.NewAccountRepository(pool)
			stored, err := accounts.GetByID(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(h.svc.ForgotPassword(ctx, email)).To(Succeed())
			Expect(h.svc.ResetPassword(ctx, h.mail.lastToken(email, auth.PurposeResetPassword), "new-password")).To(Succeed())

			swapped, err := accounts.SwapPasswordHash(ctx, account.ID, stored.PasswordHash, "stale-upgrade", h.clock.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(swapped).To(BeFalse())

			_, err = h.svc.Login(ctx, email, "new-password")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("token sweeping", func() {
		It("removes consumed and expired tokens", func() {
			email := uniqueEmail()
			_, err := h.svc.Register(ctx, registration(email, "pw"))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.svc.ConfirmAccount(ctx, h.mail.lastToken(email, auth.PurposeConfirmAccount))).To(Succeed())

			n, err := h.tokens.Sweep(ctx, time.Now().Add(time.Minute))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeNumerically(">=", 1))

			var remaining int
			Expect(pool.QueryRow(ctx, `SELECT count(*) FROM single_use_tokens WHERE consumed_at IS NOT NULL`).Scan(&remaining)).To(Succeed())
			Expect(remaining).To(BeZero())
		})
	})
})
