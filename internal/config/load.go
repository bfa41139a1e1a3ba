// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// secrets are only read from the environment.
type secrets struct {
	SigningSecret string `env:"VAULT_SIGNING_SECRET"`
	DatabaseURL   string `env:"DATABASE_URL"`
	NATSURL       string `env:"VAULT_NATS_URL"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-format":                "log.format",
	"log-level":                 "log.level",
	"store":                     "store.driver",
	"auto-migrate":              "store.auto_migrate",
	"session-ttl":               "auth.session_ttl",
	"confirm-token-ttl":         "auth.confirm_token_ttl",
	"reset-token-ttl":           "auth.reset_token_ttl",
	"disclose-unknown-accounts": "auth.disclose_unknown_accounts",
	"sweep-interval":            "auth.sweep_interval",
	"notifier":                  "notify.driver",
	"confirm-url":               "notify.confirm_url",
	"reset-url":                 "notify.reset_url",
	"metrics-addr":              "metrics.addr",
}

// Flags returns a flag set for every flag-settable key, defaulted from
// Defaults.
func Flags() *pflag.FlagSet {
	d := Defaults()
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("store", d.Store.Driver, "credential store (postgres or memory)")
	fs.Bool("auto-migrate", d.Store.AutoMigrate, "apply pending migrations on startup")
	fs.Duration("session-ttl", d.Auth.SessionTTL, "session token lifetime")
	fs.Duration("confirm-token-ttl", d.Auth.ConfirmTokenTTL, "confirmation token lifetime (0 = never expires)")
	fs.Duration("reset-token-ttl", d.Auth.ResetTokenTTL, "password reset token lifetime")
	fs.Bool("disclose-unknown-accounts", d.Auth.DiscloseUnknownAccounts, "report unknown emails as AUTH_ACCOUNT_NOT_FOUND")
	fs.Duration("sweep-interval", d.Auth.SweepInterval, "interval between expired token sweeps")
	fs.String("notifier", d.Notify.Driver, "notifier (log or nats)")
	fs.String("confirm-url", d.Notify.ConfirmURL, "base URL of mailed confirmation links")
	fs.String("reset-url", d.Notify.ResetURL, "base URL of mailed password reset links")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	return fs
}

// LoadOptions name the sources Load reads.
type LoadOptions struct {
	// File is a YAML file path. Empty skips the file.
	File string
	// Flags is a flag set built by Flags. Nil skips flags.
	Flags *pflag.FlagSet
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load builds and validates the configuration.
func Load(opts LoadOptions) (Config, error) {
	cfg, err := load(opts)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DatabaseURL resolves only the database URL, for commands that need
// nothing else.
func DatabaseURL(opts LoadOptions) (string, error) {
	cfg, err := load(opts)
	if err != nil {
		return "", err
	}
	if cfg.Store.DatabaseURL == "" {
		return "", invalid("store.database_url", "DATABASE_URL is required")
	}
	return cfg.Store.DatabaseURL, nil
}

func load(opts LoadOptions) (Config, error) {
	cfg := Defaults()
	k := koanf.New(".")

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	var s secrets
	if err := env.ParseWithOptions(&s, env.Options{Environment: opts.Environ}); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}
	cfg.Auth.SigningSecret = s.SigningSecret
	if s.DatabaseURL != "" {
		cfg.Store.DatabaseURL = s.DatabaseURL
	}
	if s.NATSURL != "" {
		cfg.Notify.NATSURL = s.NATSURL
	}
	return cfg, nil
}
