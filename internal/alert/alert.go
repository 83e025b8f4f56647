// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package alert notifies an operator when a run is blocked.
package alert

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/publish-or-not/internal/logging"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

// Alerter delivers an out-of-band notification.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// New returns a Mailer when cfg names an SMTP relay, and Noop otherwise.
func New(cfg types.AlertConfig) Alerter {
	if !cfg.Enabled() {
		return Noop{}
	}
	return &Mailer{cfg: cfg, now: time.Now}
}

// Mailer sends alerts by SMTP.
type Mailer struct {
	cfg types.AlertConfig
	now func() time.Time
}

var _ Alerter = (*Mailer)(nil)

// Alert sends one message to every configured recipient.
func (m *Mailer) Alert(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	port := m.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	msg := buildMessage(from, m.cfg.To, subject, body, m.now())
	if err := smtp.SendMail(addr, auth, from, m.cfg.To, msg); err != nil {
		return fmt.Errorf("sending alert via %s: %w", addr, err)
	}
	l := logging.WithComponent("alert")
	l.Info().
		Str("relay", addr).
		Strs("to", m.cfg.To).
		Msg("alert sent")
	return nil
}

func buildMessage(from string, to []string, subject, body string, at time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// Noop drops alerts. It is used when no SMTP relay is configured.
type Noop struct{}

// Alert logs the alert it would have sent.
func (Noop) Alert(_ context.Context, subject, _ string) error {
	l := logging.WithComponent("alert")
	l.Warn().
		Str("subject", subject).
		Msg("no SMTP relay configured, alert not sent")
	return nil
}
