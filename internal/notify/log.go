// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
)

// LogNotifier writes each message as a JSON line to an outbox writer and
// logs the delivery without the body.
type LogNotifier struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger *slog.Logger
}

var _ auth.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier writing to outbox.
func NewLogNotifier(outbox io.Writer, logger *slog.Logger) (*LogNotifier, error) {
	if outbox == nil {
		return nil, oops.Errorf("outbox writer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &LogNotifier{enc: json.NewEncoder(outbox), logger: logger}, nil
}

// Send implements auth.Notifier.
func (n *LogNotifier) Send(ctx context.Context, msg auth.Message) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_CANCELLED").Wrap(err)
	}

	n.mu.Lock()
	err := n.enc.Encode(msg)
	n.mu.Unlock()
	if err != nil {
		return oops.Code("NOTIFY_WRITE_FAILED").With("purpose", string(msg.Purpose)).Wrap(err)
	}

	n.logger.InfoContext(ctx, "notification written to outbox",
		"account_id", msg.AccountID.String(),
		"purpose", string(msg.Purpose),
		"subject", msg.Subject)
	return nil
}
