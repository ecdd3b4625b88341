package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"internship-service/internal/messaging"
)

// Events is a messaging.Publisher that keeps every published envelope.
type Events struct {
	mu        sync.Mutex
	envelopes []messaging.Envelope
	Err       error
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) Publish(ctx context.Context, subject string, body []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	var env messaging.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	e.envelopes = append(e.envelopes, env)
	return nil
}

func (e *Events) Close() error { return nil }

// Subjects lists published subjects in order.
func (e *Events) Subjects() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.envelopes))
	for i, env := range e.envelopes {
		out[i] = env.Subject
	}
	return out
}

func (e *Events) Envelopes() []messaging.Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]messaging.Envelope(nil), e.envelopes...)
}
