// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/internal/auth/memory"
	"github.com/vaidya/vault/internal/auth/postgres"
	"github.com/vaidya/vault/internal/config"
	"github.com/vaidya/vault/internal/logging"
	"github.com/vaidya/vault/internal/notify"
	"github.com/vaidya/vault/internal/observability"
	"github.com/vaidya/vault/internal/store"
)

// app is a fully wired service plus the resources it holds.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	service *auth.Service
	tokens  *auth.TokenStore
	ready   observability.ReadinessChecker
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.Setup(logging.Options{
		Service: "vault",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Output:  w,
	}), nil
}

// newApp connects the store and notifier and builds the auth service.
// outbox receives messages from the log notifier.
func newApp(ctx context.Context, cfg config.Config, deps *Deps, logger *slog.Logger, outbox io.Writer) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var (
		accounts  auth.AccountRepository
		tokenRepo auth.TokenRepository
		tx        auth.Transactor
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		mem := memory.NewStore()
		accounts, tokenRepo, tx = mem.Accounts(), mem.Tokens(), mem
	default:
		pool, err := deps.PoolFactory(ctx, cfg.Store.DatabaseURL, store.ConnectOptions{
			MaxConns: cfg.Store.MaxConns,
			Attempts: cfg.Store.ConnectAttempts,
			Backoff:  cfg.Store.ConnectBackoff,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if cfg.Store.AutoMigrate {
			if err := migrateUp(cfg.Store.DatabaseURL, logger); err != nil {
				return nil, err
			}
		}
		accounts = postgres.NewAccountRepository(pool)
		tokenRepo = postgres.NewTokenRepository(pool)
		tx = postgres.NewTransactor(pool)
		a.ready = pool.Ping
	}

	notifier, err := a.newNotifier(deps, outbox)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenStore(tokenRepo, cfg.TokenPolicy())
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewSessionCodec([]byte(cfg.Auth.SigningSecret), cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}

	service, err := auth.NewService(auth.ServiceDeps{
		Accounts:   accounts,
		Tokens:     tokens,
		Hasher:     auth.NewArgon2idHasher(),
		Sessions:   sessions,
		Notifier:   notifier,
		Transactor: tx,
		Logger:     logger,
	}, auth.Policy{
		DiscloseUnknownAccounts: cfg.Auth.DiscloseUnknownAccounts,
		Links:                   cfg.Links(),
	})
	if err != nil {
		return nil, oops.Code("SERVICE_INIT_FAILED").Wrap(err)
	}

	a.service = service
	a.tokens = tokens
	return a, nil
}

func (a *app) newNotifier(deps *Deps, outbox io.Writer) (auth.Notifier, error) {
	if a.cfg.Notify.Driver == config.NotifierNATS {
		n, err := deps.NATSDialer(notify.NATSOptions{
			URL:           a.cfg.Notify.NATSURL,
			Stream:        a.cfg.Notify.Stream,
			SubjectPrefix: a.cfg.Notify.SubjectPrefix,
			Logger:        a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, n.Close)
		return n, nil
	}
	n, err := notify.NewLogNotifier(outbox, a.logger)
	if err != nil {
		return nil, oops.Code("NOTIFIER_INIT_FAILED").Wrap(err)
	}
	return n, nil
}

func migrateUp(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	if err := migrator.Up(); err != nil {
		return err
	}
	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Info("schema migrated", "version", version)
	return nil
}
