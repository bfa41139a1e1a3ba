// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role is the closed set of account roles. Service passes it through to the
// session token and never branches on it.
type Role string

// Known roles.
const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// ParseRole converts s into a Role, rejecting anything outside the enum.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	default:
		return "", ErrInvalidInput("role", "role must be one of: patient, doctor")
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// AccountState is the confirmation state of an account.
type AccountState string

// Account confirmation states. Enabled is terminal.
const (
	StatePending AccountState = "pending"
	StateEnabled AccountState = "enabled"
)

var (
	emailRegex      = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
	phoneRegex      = regexp.MustCompile(`^[0-9]{10}$`)
	nationalIDRegex = regexp.MustCompile(`^[0-9]{12}$`)
)

// Profile holds the registration details that are not credentials.
type Profile struct {
	FullName        string `json:"full_name"`
	Phone           string `json:"phone"`
	NationalID      string `json:"national_id"`
	Specialization  string `json:"specialization,omitempty"`
	Qualification   string `json:"qualification,omitempty"`
	ExperienceYears int    `json:"experience_years,omitempty"`
	ClinicName      string `json:"clinic_name,omitempty"`
	Address         string `json:"address,omitempty"`
	Gender          string `json:"gender,omitempty"`
}

// Validate checks the required profile fields.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return ErrInvalidInput("full_name", "full name is required")
	}
	if !phoneRegex.MatchString(p.Phone) {
		return ErrInvalidInput("phone", "phone number must be exactly 10 digits")
	}
	if !nationalIDRegex.MatchString(p.NationalID) {
		return ErrInvalidInput("national_id", "national ID must be exactly 12 digits")
	}
	if p.ExperienceYears < 0 {
		return ErrInvalidInput("experience_years", "experience cannot be negative")
	}
	return nil
}

// Account is a registered identity. PasswordHash never leaves this package's
// callers through Service results.
type Account struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	Role         Role
	Enabled      bool
	Profile      Profile
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates a validated, pending Account.
// email must already be normalized with NormalizeEmail.
func NewAccount(email, passwordHash string, role Role, profile Profile, now time.Time) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, ErrInvalidInput("role", "role must be one of: patient, doctor")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Profile:      profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// State returns the confirmation state.
func (a *Account) State() AccountState {
	if a.Enabled {
		return StateEnabled
	}
	return StatePending
}

// NormalizeEmail lower-cases and trims an email address. All lookups and
// uniqueness checks use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address shape.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrInvalidInput("email", "email is required")
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidInput("email", "invalid email format")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	// Returns ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by normalized email.
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// ExistsByEmail reports whether an account uses the normalized email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns accounts ordered by creation time. An empty role lists
	// every account.
	List(ctx context.Context, role Role) ([]*Account, error)

	// UpdatePassword replaces only the password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string, at time.Time) error

	// SwapPasswordHash replaces the password hash only while it still equals
	// oldHash. Returns false when the hash changed or the account is gone.
	SwapPasswordHash(ctx context.Context, id ulid.ULID, oldHash, newHash string, at time.Time) (bool, error)

	// Enable flips the enabled flag if it is still false.
	// Returns false when the account was already enabled.
	Enable(ctx context.Context, id ulid.ULID, at time.Time) (bool, error)
}
