// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/vaidya/vault/pkg/errutil"
)

// DefaultSweepInterval is how often the Sweeper runs when none is configured.
const DefaultSweepInterval = 15 * time.Minute

// Sweeper periodically deletes consumed and expired single-use tokens.
type Sweeper struct {
	tokens   *TokenStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper. A zero interval uses DefaultSweepInterval.
func NewSweeper(tokens *TokenStore, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if tokens == nil {
		return nil, oops.Errorf("token store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if interval < 0 {
		return nil, oops.With("interval", interval.String()).Errorf("sweep interval cannot be negative")
	}
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		tokens:   tokens,
		interval: interval,
		logger:   logger.With("component", "token_sweeper"),
		now:      time.Now,
	}, nil
}

// Start launches the sweep loop. Calling Start on a running Sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
}

// Stop halts the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SweepOnce deletes consumed and expired tokens as of now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.tokens.Sweep(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		TokensSwept.Add(float64(n))
		s.logger.Debug("swept single-use tokens", "count", n)
	}
	return n, nil
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				errutil.LogErrorContext(ctx, s.logger, "token sweep failed", err)
			}
		}
	}
}
