// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

// Package notify delivers confirmation and password reset messages.
//
// LogNotifier writes messages to a local outbox stream for development.
// NATSNotifier publishes them to a JetStream subject consumed by the mail
// sender.
package notify
