// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// monitorServerErrors cancels ctx when the server reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("observability server failed", "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

func (c *cli) logOutput(cmd *cobra.Command) io.Writer {
	if c.deps.LogOutput != nil {
		return c.deps.LogOutput
	}
	return cmd.ErrOrStderr()
}
