// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

// Package config loads vault configuration.
//
// Sources are applied in increasing precedence: built-in defaults, a YAML
// file, command-line flags, then secrets from the environment.
package config

import (
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/internal/notify"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Notifier drivers.
const (
	NotifierLog  = "log"
	NotifierNATS = "nats"
)

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = auth.MinSigningSecretSize

// Config is the complete runtime configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`
	Auth    AuthConfig    `koanf:"auth"`
	Notify  NotifyConfig  `koanf:"notify"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StoreConfig selects and tunes the credential store.
type StoreConfig struct {
	Driver          string        `koanf:"driver"`
	DatabaseURL     string        `koanf:"database_url"`
	MaxConns        int32         `koanf:"max_conns"`
	ConnectAttempts uint64        `koanf:"connect_attempts"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// AuthConfig holds token lifetimes and policy. SigningSecret only comes from
// the environment.
type AuthConfig struct {
	SigningSecret           string        `koanf:"-"`
	SessionTTL              time.Duration `koanf:"session_ttl"`
	ConfirmTokenTTL         time.Duration `koanf:"confirm_token_ttl"`
	ResetTokenTTL           time.Duration `koanf:"reset_token_ttl"`
	DiscloseUnknownAccounts bool          `koanf:"disclose_unknown_accounts"`
	SweepInterval           time.Duration `koanf:"sweep_interval"`
}

// NotifyConfig selects the notifier and the links it mails.
type NotifyConfig struct {
	Driver        string `koanf:"driver"`
	ConfirmURL    string `koanf:"confirm_url"`
	ResetURL      string `koanf:"reset_url"`
	NATSURL       string `koanf:"nats_url"`
	Stream        string `koanf:"stream"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// MetricsConfig configures the observability server. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Log: LogConfig{Format: "json", Level: "info"},
		Store: StoreConfig{
			Driver:          StorePostgres,
			ConnectAttempts: 6,
			ConnectBackoff:  500 * time.Millisecond,
		},
		Auth: AuthConfig{
			SessionTTL:      auth.DefaultSessionTTL,
			ConfirmTokenTTL: auth.DefaultConfirmTTL,
			ResetTokenTTL:   auth.DefaultResetTTL,
			SweepInterval:   auth.DefaultSweepInterval,
		},
		Notify: NotifyConfig{
			Driver:        NotifierLog,
			ConfirmURL:    "http://localhost:8080/confirm-account",
			ResetURL:      "http://localhost:8080/reset-password",
			Stream:        notify.DefaultStream,
			SubjectPrefix: notify.DefaultSubjectPrefix,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

func invalid(field, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}

// Validate reports every invalid setting in one CONFIG_INVALID error.
func (c Config) Validate() error {
	var errs []error
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, invalid("log.format", "log format must be json or text, got %q", c.Log.Format))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, invalid("store.database_url", "DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, invalid("store.driver", "store driver must be postgres or memory, got %q", c.Store.Driver))
	}
	if len(c.Auth.SigningSecret) < MinSecretLength {
		errs = append(errs, invalid("auth.signing_secret", "VAULT_SIGNING_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, invalid("auth.session_ttl", "session ttl must be positive"))
	}
	if c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, invalid("auth.reset_token_ttl", "reset token ttl must be positive"))
	}
	if c.Auth.ConfirmTokenTTL < 0 {
		errs = append(errs, invalid("auth.confirm_token_ttl", "confirm token ttl must not be negative"))
	}
	if c.Auth.SweepInterval < 0 {
		errs = append(errs, invalid("auth.sweep_interval", "sweep interval must not be negative"))
	}
	switch c.Notify.Driver {
	case NotifierLog:
	case NotifierNATS:
		if c.Notify.NATSURL == "" {
			errs = append(errs, invalid("notify.nats_url", "VAULT_NATS_URL is required for the nats notifier"))
		}
	default:
		errs = append(errs, invalid("notify.driver", "notifier must be log or nats, got %q", c.Notify.Driver))
	}
	if err := c.Links().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return oops.Code("CONFIG_INVALID").Wrap(errors.Join(errs...))
	}
	return nil
}

// Links returns the mailed link bases.
func (c Config) Links() auth.Links {
	return auth.Links{ConfirmURL: c.Notify.ConfirmURL, ResetURL: c.Notify.ResetURL}
}

// TokenPolicy returns the single-use token lifetimes.
func (c Config) TokenPolicy() auth.TokenPolicy {
	return auth.TokenPolicy{ConfirmTTL: c.Auth.ConfirmTokenTTL, ResetTTL: c.Auth.ResetTokenTTL}
}
