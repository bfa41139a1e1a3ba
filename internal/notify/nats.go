// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vaidya/vault/internal/auth"
)

// Defaults for the mail stream.
const (
	DefaultStream        = "VAULT_MAIL"
	DefaultSubjectPrefix = "vault.mail"
)

// Envelope is the JetStream payload. ID doubles as the deduplication key.
type Envelope struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Purpose   string    `json:"purpose"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// publisher is the JetStream surface NATSNotifier needs.
type publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSOptions configure DialNATS.
type NATSOptions struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Logger        *slog.Logger
}

// NATSNotifier publishes messages to <prefix>.<purpose> on JetStream.
type NATSNotifier struct {
	js     publisher
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

var _ auth.Notifier = (*NATSNotifier)(nil)

// DialNATS connects to NATS, ensures the mail stream exists and returns a
// notifier publishing to it.
func DialNATS(opts NATSOptions) (*NATSNotifier, error) {
	if opts.URL == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("nats url is required")
	}
	if opts.Stream == "" {
		opts.Stream = DefaultStream
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = DefaultSubjectPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	nc, err := nats.Connect(opts.URL, nats.Name("vault"))
	if err != nil {
		return nil, oops.Code("NOTIFY_CONNECT_FAILED").With("url", opts.URL).Wrap(err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, oops.Code("NOTIFY_CONNECT_FAILED").Wrap(err)
	}
	if err := ensureStream(js, opts.Stream, opts.SubjectPrefix); err != nil {
		nc.Close()
		return nil, err
	}

	n, err := newNATSNotifier(js, opts.SubjectPrefix, opts.Logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	n.conn = nc
	return n, nil
}

func ensureStream(js nats.JetStreamManager, stream, prefix string) error {
	_, err := js.StreamInfo(stream)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, nats.ErrStreamNotFound):
		return oops.Code("NOTIFY_STREAM_FAILED").With("stream", stream).Wrap(err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:       stream,
		Subjects:   []string{prefix + ".>"},
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		return oops.Code("NOTIFY_STREAM_FAILED").With("stream", stream).Wrap(err)
	}
	return nil
}

func newNATSNotifier(js publisher, prefix string, logger *slog.Logger) (*NATSNotifier, error) {
	if js == nil {
		return nil, oops.Errorf("jetstream publisher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &NATSNotifier{js: js, prefix: prefix, logger: logger, now: time.Now}, nil
}

// Subject returns the subject messages for purpose are published on.
func (n *NATSNotifier) Subject(purpose auth.Purpose) string {
	return n.prefix + "." + string(purpose)
}

// Send implements auth.Notifier. It returns once JetStream acknowledged the
// message.
func (n *NATSNotifier) Send(ctx context.Context, msg auth.Message) error {
	now := n.now()
	env := Envelope{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		AccountID: msg.AccountID.String(),
		Purpose:   string(msg.Purpose),
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		CreatedAt: now.UTC(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return oops.Code("NOTIFY_ENCODE_FAILED").Wrap(err)
	}

	subject := n.Subject(msg.Purpose)
	ack, err := n.js.Publish(subject, data, nats.Context(ctx), nats.MsgId(env.ID))
	if err != nil {
		return oops.Code("NOTIFY_PUBLISH_FAILED").With("subject", subject).Wrap(err)
	}

	n.logger.InfoContext(ctx, "notification published",
		"account_id", env.AccountID,
		"purpose", env.Purpose,
		"stream", ack.Stream,
		"sequence", ack.Sequence)
	return nil
}

// Close drains the NATS connection, if DialNATS opened one.
func (n *NATSNotifier) Close() {
	if n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
