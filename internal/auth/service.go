// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vaidya/vault/pkg/errutil"
)

// dummyPasswordHash is used when an account doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// burnTimeout bounds the standalone consume that runs after a failed reset.
const burnTimeout = 5 * time.Second

// Transactor runs fn in a single storage transaction. Repository calls made
// with the ctx passed to fn participate in it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceDeps are the collaborators of Service. Logger and Clock are optional.
type ServiceDeps struct {
	Accounts   AccountRepository
	Tokens     *TokenStore
	Hasher     PasswordHasher
	Sessions   *SessionCodec
	Notifier   Notifier
	Transactor Transactor
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Policy holds the behavioral switches of Service.
type Policy struct {
	// DiscloseUnknownAccounts makes Login and ForgotPassword report
	// AUTH_ACCOUNT_NOT_FOUND instead of hiding unknown emails.
	DiscloseUnknownAccounts bool

	// Links are the base URLs for mailed tokens.
	Links Links
}

// RegisterInput is a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Role     Role
	Profile  Profile
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	AccountID ulid.ULID
	Role      Role
	FullName  string
	ExpiresAt time.Time
}

// Service implements registration, confirmation, login and password reset.
// It is safe for concurrent use; all mutable state lives in the repositories.
type Service struct {
	accounts AccountRepository
	tokens   *TokenStore
	hasher   PasswordHasher
	sessions *SessionCodec
	notifier Notifier
	tx       Transactor
	logger   *slog.Logger
	now      func() time.Time
	policy   Policy
}

// NewService creates a Service, validating its dependencies.
func NewService(deps ServiceDeps, policy Policy) (*Service, error) {
	switch {
	case deps.Accounts == nil:
		return nil, oops.Errorf("account repository is required")
	case deps.Tokens == nil:
		return nil, oops.Errorf("token store is required")
	case deps.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case deps.Sessions == nil:
		return nil, oops.Errorf("session codec is required")
	case deps.Notifier == nil:
		return nil, oops.Errorf("notifier is required")
	case deps.Transactor == nil:
		return nil, oops.Errorf("transactor is required")
	}
	if err := policy.Links.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		hasher:   deps.Hasher,
		sessions: deps.Sessions,
		notifier: deps.Notifier,
		tx:       deps.Transactor,
		logger:   logger.With("component", "auth"),
		now:      clock,
		policy:   policy,
	}, nil
}

// Register creates a pending account and mails its confirmation token.
// If delivery fails the account and token are kept: the account ID is
// returned together with an AUTH_NOTIFICATION_FAILED error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (id ulid.ULID, err error) {
	defer func() { recordOperation("register", err) }()

	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return ulid.ULID{}, err
	}
	if in.Password == "" {
		return ulid.ULID{}, ErrInvalidInput("password", "password is required")
	}
	if !in.Role.Valid() {
		return ulid.ULID{}, ErrInvalidInput("role", "role must be one of: patient, doctor")
	}
	if err := in.Profile.Validate(); err != nil {
		return ulid.ULID{}, err
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return ulid.ULID{}, s.unavailable("check email", err)
	}
	if exists {
		return ulid.ULID{}, ErrDuplicateIdentity(email)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return ulid.ULID{}, s.unavailable("hash password", err)
	}

	now := s.now()
	account, err := NewAccount(email, hash, in.Role, in.Profile, now)
	if err != nil {
		return ulid.ULID{}, err
	}

	var token string
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				return ErrDuplicateIdentity(email)
			}
			return err
		}
		var issueErr error
		token, issueErr = s.tokens.Issue(ctx, account.ID, PurposeConfirmAccount, now)
		return issueErr
	})
	if err != nil {
		return ulid.ULID{}, s.unavailable("create account", err)
	}
	TokensIssued.WithLabelValues(string(PurposeConfirmAccount)).Inc()

	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"role", string(account.Role),
	)

	if err := s.deliver(ctx, s.policy.Links.Message(account, PurposeConfirmAccount, token)); err != nil {
		return account.ID, err
	}
	return account.ID, nil
}

// ConfirmAccount redeems a confirm-account token and enables its account.
// Redemption and enabling commit together; on any failure neither happens.
func (s *Service) ConfirmAccount(ctx context.Context, token string) (err error) {
	defer func() { recordOperation("confirm_account", err) }()

	now := s.now()
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		accountID, err := s.tokens.Redeem(ctx, token, PurposeConfirmAccount, now)
		if err != nil {
			return err
		}

		flipped, err := s.accounts.Enable(ctx, accountID, now)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code(CodeTokenNotFound).
					With("account_id", accountID.String()).
					Errorf("token bound to a missing account")
			}
			return err
		}
		if !flipped {
			s.logger.WarnContext(ctx, "confirmation token redeemed for an enabled account",
				"account_id", accountID.String())
		} else {
			s.logger.InfoContext(ctx, "account confirmed", "account_id", accountID.String())
		}
		return nil
	})
	if err != nil {
		return s.redemptionError(ctx, "confirm account", err)
	}
	return nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	defer func() { recordOperation("login", err) }()

	email = NormalizeEmail(email)
	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	targetHash := dummyPasswordHash
	accountExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, s.unavailable("look up account", lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	// Always verify password (constant-time operation for timing attack prevention)
	valid := s.hasher.Verify(password, targetHash)

	if !accountExists {
		if s.policy.DiscloseUnknownAccounts {
			return nil, ErrAccountNotFound()
		}
		return nil, ErrInvalidCredentials()
	}
	if !valid {
		return nil, ErrInvalidCredentials()
	}
	if !account.Enabled {
		return nil, ErrAccountNotEnabled()
	}

	now := s.now()
	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, account, password, now)
	}

	token, err := s.sessions.Issue(account.ID, account.Role, now)
	if err != nil {
		return nil, s.unavailable("issue session", err)
	}

	return &LoginResult{
		Token:     token,
		AccountID: account.ID,
		Role:      account.Role,
		FullName:  account.Profile.FullName,
		ExpiresAt: s.sessions.ExpiryFor(now),
	}, nil
}

// ForgotPassword issues a reset token and mails it. Unknown emails succeed
// without issuing anything unless DiscloseUnknownAccounts is set.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { recordOperation("forgot_password", err) }()

	email = NormalizeEmail(email)
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.policy.DiscloseUnknownAccounts {
				return ErrAccountNotFound()
			}
			s.logger.DebugContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return s.unavailable("look up account", err)
	}

	token, err := s.issue(ctx, account.ID, PurposeResetPassword)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset token issued", "account_id", account.ID.String())
	return s.deliver(ctx, s.policy.Links.Message(account, PurposeResetPassword, token))
}

// ResetPassword redeems a reset-password token and replaces the bound
// account's password. The new hash is computed before any I/O; redemption
// and the credential write commit together. If the write fails after the
// token was consumed, the token is burned so it cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { recordOperation("reset_password", err) }()

	if newPassword == "" {
		return ErrInvalidInput("password", "new password is required")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.unavailable("hash password", err)
	}

	now := s.now()
	redeemed := false
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		accountID, err := s.tokens.Redeem(ctx, token, PurposeResetPassword, now)
		if err != nil {
			return err
		}
		redeemed = true

		if err := s.accounts.UpdatePassword(ctx, accountID, hash, now); err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code(CodeTokenNotFound).
					With("account_id", accountID.String()).
					Errorf("token bound to a missing account")
			}
			return err
		}
		s.logger.InfoContext(ctx, "password reset", "account_id", accountID.String())
		return nil
	})
	if err != nil {
		if redeemed {
			s.burn(ctx, token, now)
		}
		return s.redemptionError(ctx, "reset password", err)
	}
	return nil
}

// ResendConfirmation reissues the confirmation token of a pending account,
// superseding the previous one. Unknown and enabled accounts succeed silently.
func (s *Service) ResendConfirmation(ctx context.Context, email string) (err error) {
	defer func() { recordOperation("resend_confirmation", err) }()

	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return s.unavailable("look up account", err)
	}
	if account.Enabled {
		return nil
	}

	token, err := s.issue(ctx, account.ID, PurposeConfirmAccount)
	if err != nil {
		return err
	}
	return s.deliver(ctx, s.policy.Links.Message(account, PurposeConfirmAccount, token))
}

// ValidateSession verifies a session token against the service clock.
func (s *Service) ValidateSession(token string) (*SessionClaims, error) {
	return s.sessions.Validate(token, s.now())
}

// Account returns the account with the given ID, without its password hash.
func (s *Service) Account(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound()
		}
		return nil, s.unavailable("look up account", err)
	}
	return redact(account), nil
}

// AccountByEmail returns the account registered under email, without its
// password hash.
func (s *Service) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound()
		}
		return nil, s.unavailable("look up account", err)
	}
	return redact(account), nil
}

// ListAccounts returns the accounts with role, or every account when role is
// empty, in registration order and without password hashes.
func (s *Service) ListAccounts(ctx context.Context, role Role) ([]*Account, error) {
	if role != "" && !role.Valid() {
		return nil, ErrInvalidInput("role", "role must be one of: patient, doctor")
	}
	accounts, err := s.accounts.List(ctx, role)
	if err != nil {
		return nil, s.unavailable("list accounts", err)
	}
	out := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, redact(account))
	}
	return out, nil
}

// issue supersedes and creates a token in one transaction.
func (s *Service) issue(ctx context.Context, accountID ulid.ULID, purpose Purpose) (string, error) {
	var token string
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		token, err = s.tokens.Issue(ctx, accountID, purpose, s.now())
		return err
	})
	if err != nil {
		return "", s.unavailable("issue "+string(purpose)+" token", err)
	}
	TokensIssued.WithLabelValues(string(purpose)).Inc()
	return token, nil
}

// deliver sends msg, mapping failure to AUTH_NOTIFICATION_FAILED.
func (s *Service) deliver(ctx context.Context, msg Message) error {
	if err := s.notifier.Send(ctx, msg); err != nil {
		errutil.LogErrorContext(ctx, s.logger.With(
			"account_id", msg.AccountID.String(),
			"purpose", string(msg.Purpose),
		), "notification delivery failed", err)
		return ErrNotificationFailed(msg.Purpose, err)
	}
	return nil
}

// rehash upgrades a stale password hash. Login succeeds regardless. The
// write only lands while the stored hash is still the one that was verified,
// so a password reset committed in between is kept.
func (s *Service) rehash(ctx context.Context, account *Account, password string, now time.Time) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to upgrade password hash",
			"account_id", account.ID.String(),
			"error", err)
		return
	}
	swapped, err := s.accounts.SwapPasswordHash(ctx, account.ID, account.PasswordHash, hash, now)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to upgrade password hash",
			"account_id", account.ID.String(),
			"error", err)
		return
	}
	if !swapped {
		s.logger.DebugContext(ctx, "password changed during login; hash upgrade skipped",
			"account_id", account.ID.String())
	}
}

// burn consumes token outside the failed transaction.
func (s *Service) burn(ctx context.Context, token string, now time.Time) {
	burnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), burnTimeout)
	defer cancel()
	if err := s.tokens.Burn(burnCtx, token, now); err != nil {
		errutil.LogErrorContext(burnCtx, s.logger, "failed to burn reset token after failed reset", err)
	}
}

// redemptionError collapses internal token failures into
// AUTH_INVALID_OR_EXPIRED_TOKEN, logging the reason.
func (s *Service) redemptionError(ctx context.Context, operation string, err error) error {
	code := ErrorCode(err)
	if _, ok := tokenCodes[code]; ok {
		s.logger.InfoContext(ctx, "token redemption rejected",
			"operation", operation,
			"reason", code)
		return ErrInvalidOrExpiredToken(code)
	}
	return s.unavailable(operation, err)
}

// unavailable classifies err and logs it when it is a collaborator failure.
func (s *Service) unavailable(operation string, err error) error {
	classified := classify(operation, err)
	if IsRetryable(classified) {
		errutil.LogError(s.logger.With("operation", operation), "collaborator unavailable", classified)
	}
	return classified
}

func redact(account *Account) *Account {
	clone := *account
	clone.PasswordHash = ""
	return &clone
}
