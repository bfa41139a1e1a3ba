// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by repositories when a uniqueness constraint
// rejects a write.
var ErrAlreadyExists = errors.New("already exists")

// Error codes that cross the Service boundary.
const (
	CodeInvalidCredentials    = "AUTH_INVALID_CREDENTIALS"
	CodeAccountNotFound       = "AUTH_ACCOUNT_NOT_FOUND"
	CodeAccountNotEnabled     = "AUTH_ACCOUNT_NOT_ENABLED"
	CodeDuplicateIdentity     = "AUTH_DUPLICATE_IDENTITY"
	CodeInvalidInput          = "AUTH_INVALID_INPUT"
	CodeInvalidOrExpiredToken = "AUTH_INVALID_OR_EXPIRED_TOKEN"
	CodeUnavailable           = "AUTH_UNAVAILABLE"
	CodeNotificationFailed    = "AUTH_NOTIFICATION_FAILED"
)

// Session token validation codes.
const (
	CodeSessionMalformed        = "SESSION_MALFORMED"
	CodeSessionInvalidSignature = "SESSION_INVALID_SIGNATURE"
	CodeSessionExpired          = "SESSION_EXPIRED"
)

// Single-use token redemption codes. These stay inside the package's logs;
// callers of Service only ever see CodeInvalidOrExpiredToken.
const (
	CodeTokenNotFound     = "TOKEN_NOT_FOUND"
	CodeTokenAlreadyUsed  = "TOKEN_ALREADY_USED"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeTokenWrongPurpose = "TOKEN_WRONG_PURPOSE"
)

// ErrInvalidCredentials reports a failed credential check.
func ErrInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

// ErrAccountNotFound reports a missing account.
func ErrAccountNotFound() error {
	return oops.Code(CodeAccountNotFound).Errorf("account not found")
}

// ErrAccountNotEnabled reports a login attempt on an unconfirmed account.
func ErrAccountNotEnabled() error {
	return oops.Code(CodeAccountNotEnabled).Errorf("account has not been confirmed")
}

// ErrDuplicateIdentity reports a registration for an email already in use.
func ErrDuplicateIdentity(email string) error {
	return oops.Code(CodeDuplicateIdentity).
		With("email", email).
		Errorf("email is already in use")
}

// ErrInvalidInput reports a validation failure on a single field.
func ErrInvalidInput(field, message string) error {
	return oops.Code(CodeInvalidInput).
		With("field", field).
		Errorf("%s", message)
}

// ErrInvalidOrExpiredToken collapses every redemption failure into one code.
// reason carries the internal TOKEN_* code for logs.
func ErrInvalidOrExpiredToken(reason string) error {
	return oops.Code(CodeInvalidOrExpiredToken).
		With("reason", reason).
		Errorf("invalid or expired token")
}

// ErrUnavailable wraps a collaborator failure as the retryable kind.
// A cause that already carries its own code is summarised rather than
// wrapped, so AUTH_UNAVAILABLE stays the code callers see.
func ErrUnavailable(operation string, cause error) error {
	builder := oops.Code(CodeUnavailable).With("operation", operation)
	if code := ErrorCode(cause); code != "" {
		return builder.
			With("cause_code", code).
			With("cause", cause.Error()).
			Errorf("%s failed", operation)
	}
	return builder.Wrap(cause)
}

// ErrNotificationFailed reports a delivery failure after the token was stored.
func ErrNotificationFailed(purpose Purpose, cause error) error {
	builder := oops.Code(CodeNotificationFailed).With("purpose", string(purpose))
	if code := ErrorCode(cause); code != "" {
		return builder.
			With("cause_code", code).
			With("cause", cause.Error()).
			Errorf("notification delivery failed")
	}
	return builder.Wrap(cause)
}

// ErrorCode returns the oops code carried by err, or "" when there is none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := any(oopsErr.Code()).(string)
	return code
}

// IsRetryable reports whether err is the retryable AUTH_UNAVAILABLE kind.
func IsRetryable(err error) bool {
	return ErrorCode(err) == CodeUnavailable
}

// publicCodes is the closed set of codes Service may return.
var publicCodes = map[string]struct{}{
	CodeInvalidCredentials:      {},
	CodeAccountNotFound:         {},
	CodeAccountNotEnabled:       {},
	CodeDuplicateIdentity:       {},
	CodeInvalidInput:            {},
	CodeInvalidOrExpiredToken:   {},
	CodeUnavailable:             {},
	CodeNotificationFailed:      {},
	CodeSessionMalformed:        {},
	CodeSessionInvalidSignature: {},
	CodeSessionExpired:          {},
}

// tokenCodes are the internal redemption failures.
var tokenCodes = map[string]struct{}{
	CodeTokenNotFound:     {},
	CodeTokenAlreadyUsed:  {},
	CodeTokenExpired:      {},
	CodeTokenWrongPurpose: {},
}

// classify maps a collaborator failure to AUTH_UNAVAILABLE unless it already
// carries a taxonomy code. Deadline and cancellation land here too.
func classify(operation string, err error) error {
	code := ErrorCode(err)
	if _, ok := publicCodes[code]; ok {
		return err
	}
	if _, ok := tokenCodes[code]; ok {
		return err
	}
	return ErrUnavailable(operation, err)
}
