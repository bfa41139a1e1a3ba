// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vaidya/vault/internal/notify"
	"github.com/vaidya/vault/internal/observability"
)

type fakeObservability struct {
	registry *prometheus.Registry
	startErr error
	started  bool
	stopped  bool
}

func (f *fakeObservability) Start() (<-chan error, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = true
	return make(chan error), nil
}
func (f *fakeObservability) Stop(context.Context) error      { f.stopped = true; return nil }
func (f *fakeObservability) Addr() string                    { return "127.0.0.1:0" }
func (f *fakeObservability) Registry() prometheus.Registerer { return f.registry }

// cancelledSignals makes serve shut down as soon as it is ready.
func cancelledSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	return ctx, cancel
}

func TestServe_StartsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	obs := &fakeObservability{registry: prometheus.NewRegistry()}
	deps := testDeps()
	deps.Signals = cancelledSignals
	deps.ObservabilityServerFactory = func(string, string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
		return obs
	}

	out, err := execute(t, deps, "--store=memory", "serve")
	require.NoError(t, err)

	assert.Contains(t, out, "vault started")
	assert.True(t, obs.started)
	assert.True(t, obs.stopped)

	families, err := obs.registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "vault_tokens_swept_total")
}

func TestServe_MetricsDisabled(t *testing.T) {
	deps := testDeps()
	deps.Signals = cancelledSignals
	deps.ObservabilityServerFactory = func(string, string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
		t.Fatal("observability server should not be created")
		return nil
	}

	_, err := execute(t, deps, "--store=memory", "--metrics-addr=", "serve")
	require.NoError(t, err)
}

func TestServe_ObservabilityStartFailure(t *testing.T) {
	deps := testDeps()
	deps.Signals = cancelledSignals
	deps.ObservabilityServerFactory = func(string, string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
		return &fakeObservability{registry: prometheus.NewRegistry(), startErr: errors.New("address in use")}
	}

	_, err := execute(t, deps, "--store=memory", "serve")
	require.Error(t, err)
}

func TestServe_NATSDialFailure(t *testing.T) {
	deps := testDeps()
	deps.Environ["VAULT_NATS_URL"] = "nats://localhost:4222"
	deps.Signals = cancelledSignals
	deps.NATSDialer = func(notify.NATSOptions) (ClosableNotifier, error) {
		return nil, errors.New("no servers available")
	}

	_, err := execute(t, deps, "--store=memory", "--notifier=nats", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no servers available")
}
