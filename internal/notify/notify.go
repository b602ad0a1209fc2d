// Package notify delivers best-effort notifications to account holders and
// staff. Senders are fire-and-forget: they run on the worker pool after the
// owning transaction commits and are never part of a transaction boundary.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"bank-office/internal/utils"
)

type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogNotifier writes notifications to the application log. The default when
// no SMTP relay is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, recipient, subject, body string) error {
	utils.LogInfo("Notify", "to=%s subject=%q %s", recipient, subject, strings.ReplaceAll(body, "\n", " "))
	return nil
}

// SMTPNotifier sends plain-text mail through a relay.
type SMTPNotifier struct {
	Addr   string // host:port
	Sender string
}

func (n *SMTPNotifier) Send(_ context.Context, recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.Sender, recipient, subject, body)
	if err := smtp.SendMail(n.Addr, nil, n.Sender, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", recipient, err)
	}
	return nil
}
