// Package mailer sends transactional email. Delivery is best effort; callers
// log failures and carry on.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"internship-service/internal/config"

	"github.com/wneessen/go-mail"
)

var ErrNoRecipient = errors.New("mail has no recipient")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when a host is configured and a logging no-op
// otherwise.
func New(cfg config.SMTPConfig, logger *slog.Logger) (Mailer, error) {
	if cfg.Host == "" {
		logger.Info("smtp not configured, emails will only be logged")
		return NewNoop(logger), nil
	}
	return NewSMTP(cfg, logger)
}

type SMTPMailer struct {
	client  *mail.Client
	from    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewSMTP(cfg config.SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	logger.Info("smtp mailer initialized", "host", cfg.Host, "port", port)

	return &SMTPMailer{
		client:  client,
		from:    from,
		timeout: 15 * time.Second,
		logger:  logger,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	email, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.InfoContext(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func buildMessage(from string, msg Message) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, ErrNoRecipient
	}

	email := mail.NewMsg()
	if err := email.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := email.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextPlain, msg.Body)
	return email, nil
}

// NoopMailer logs instead of sending.
type NoopMailer struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.logger.DebugContext(ctx, "email skipped", "to", msg.To, "subject", msg.Subject)
	return nil
}
