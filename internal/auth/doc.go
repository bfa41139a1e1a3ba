// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

// Package auth provides the credential and token lifecycle for Vault.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewAccount - creates a pending Account with a validated email, role and profile
//   - NewSingleUseToken - creates a SingleUseToken bound to one account and one purpose
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Primitives
//
//   - Argon2idHasher - salted password hashing with constant-time verification
//   - SessionCodec - stateless HS256 session tokens
//   - TokenStore - issue, redeem and sweep single-use tokens
//
// # Services
//
// Service coordinates registration, confirmation, login and password reset.
// Errors crossing its boundary carry one of the AUTH_* or SESSION_* codes;
// use ErrorCode and IsRetryable to inspect them.
package auth
