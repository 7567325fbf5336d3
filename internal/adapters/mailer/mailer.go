// Package mailer delivers alert notifications over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/jobradar/jobradar/internal/core"
)

// Mailer sends plain-text messages through an SMTP relay. It implements
// core.MessageSender.
type Mailer struct {
	client *mail.Client
	from   string
}

// MailerOptions configures a Mailer.
type MailerOptions struct {
	Host string
	Port int
	User string
	Pass string
	// From is the sender address. Defaults to User when empty.
	From string
}

// NewMailer creates an SMTP mailer. Port 465 uses implicit TLS; every other
// port requires STARTTLS.
func NewMailer(opts MailerOptions) (*Mailer, error) {
	if opts.Host == "" {
		return nil, errors.New("mailer: host is required")
	}
	if opts.User == "" || opts.Pass == "" {
		return nil, errors.New("mailer: SMTP credentials are required")
	}
	from := opts.From
	if from == "" {
		from = opts.User
	}

	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.User),
		mail.WithPassword(opts.Pass),
	}
	if opts.Port == 465 {
		clientOpts = append(clientOpts, mail.WithSSL())
	} else {
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: create client: %w", err)
	}
	return &Mailer{client: client, from: from}, nil
}

// Send delivers a single plain-text message.
func (m *Mailer) Send(ctx context.Context, msg core.OutboundMessage) error {
	message := mail.NewMsg()
	if err := message.From(m.from); err != nil {
		return fmt.Errorf("mailer: set sender: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("mailer: set recipient: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := m.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	return nil
}
