// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"context"
	"net/url"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Message is an outbound notification.
type Message struct {
	AccountID ulid.ULID `json:"account_id"`
	Purpose   Purpose   `json:"purpose"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}

// Notifier delivers messages out of band (email, SMS, a mail queue).
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Links are the base URLs mailed tokens are appended to as ?token=.
type Links struct {
	ConfirmURL string
	ResetURL   string
}

// Validate checks that both links are absolute URLs.
func (l Links) Validate() error {
	for name, raw := range map[string]string{"confirm_url": l.ConfirmURL, "reset_url": l.ResetURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return oops.Code("LINKS_INVALID").With("link", name).With("value", raw).Errorf("%s must be an absolute URL", name)
		}
	}
	return nil
}

// Message builds the notification carrying token for purpose.
func (l Links) Message(account *Account, purpose Purpose, token string) Message {
	msg := Message{
		AccountID: account.ID,
		Purpose:   purpose,
		To:        account.Email,
	}
	switch purpose {
	case PurposeResetPassword:
		msg.Subject = "Reset your password"
		msg.Body = "To reset your password, open the link below:\n" + withToken(l.ResetURL, token)
	default:
		msg.Subject = "Complete Registration!"
		msg.Body = "To confirm your account, please click here : " + withToken(l.ConfirmURL, token)
	}
	return msg
}

func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
