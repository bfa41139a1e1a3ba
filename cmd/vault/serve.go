// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vaidya/vault/internal/auth"
)

const shutdownTimeout = 5 * time.Second

func notifySignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the token sweeper and health endpoints",
		Long: `Connect the credential store, start the observability server and the
expired token sweeper, then wait for SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, c)
		},
	}
}

func runServe(cmd *cobra.Command, c *cli) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, c.logOutput(cmd))
	if err != nil {
		return err
	}

	ctx, stop := c.deps.Signals(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, c.deps, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obs ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obs = c.deps.ObservabilityServerFactory(cfg.Metrics.Addr, version, a.ready, logger)
		auth.RegisterMetrics(obs.Registry())
		errCh, err := obs.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, errCh, logger)
	}

	sweeper, err := auth.NewSweeper(a.tokens, cfg.Auth.SweepInterval, logger)
	if err != nil {
		return err
	}
	sweeper.Start(ctx)

	cmd.Println("vault started")
	logger.Info("vault ready",
		"store", cfg.Store.Driver,
		"notifier", cfg.Notify.Driver,
		"metrics_addr", cfg.Metrics.Addr)

	<-ctx.Done()
	logger.Info("shutting down")

	sweeper.Stop()

	if obs != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}
