package messaging

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name("internship-service"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url)

	return &NATSPublisher{
		conn:   nc,
		logger: logger,
	}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, body []byte) error {
	return p.conn.Publish(subject, body)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
