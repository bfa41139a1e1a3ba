// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vaidya/vault/internal/auth"
	"github.com/vaidya/vault/internal/notify"
	"github.com/vaidya/vault/internal/observability"
	"github.com/vaidya/vault/internal/store"
)

// Deps contains injectable dependencies for the CLI.
// All fields with nil values will use their default implementations.
type Deps struct {
	// Environ replaces the process environment for configuration.
	// Default: nil (process environment)
	Environ map[string]string

	// PoolFactory opens the PostgreSQL pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, dsn string, opts store.ConnectOptions) (*pgxpool.Pool, error)

	// NATSDialer connects the JetStream notifier.
	// Default: notify.DialNATS
	NATSDialer func(opts notify.NATSOptions) (ClosableNotifier, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr, version string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// LogOutput receives structured logs.
	// Default: the command's stderr
	LogOutput io.Writer

	// Signals is closed or sent to when serve should stop.
	// Default: SIGINT and SIGTERM
	Signals func(ctx context.Context) (context.Context, context.CancelFunc)
}

// ClosableNotifier is a notifier holding a connection.
type ClosableNotifier interface {
	auth.Notifier
	Close()
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Registry() prometheus.Registerer
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = store.Connect
	}
	if out.NATSDialer == nil {
		out.NATSDialer = func(opts notify.NATSOptions) (ClosableNotifier, error) {
			return notify.DialNATS(opts)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr, version string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, version, ready, logger)
		}
	}
	if out.Signals == nil {
		out.Signals = notifySignals
	}
	return out
}
