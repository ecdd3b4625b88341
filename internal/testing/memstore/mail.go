package memstore

import (
	"context"
	"sync"

	"internship-service/internal/mailer"
)

// Mailbox is a mailer.Mailer that records sent messages.
type Mailbox struct {
	mu   sync.Mutex
	sent []mailer.Message
	Err  error
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailbox) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}
