package messaging

import (
	"context"
	"log/slog"

	"github.com/IBM/sarama"
)

// KafkaPublisher writes each subject to the topic of the same name.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	logger   *slog.Logger
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.ClientID = "internship-service"
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	logger.Info("kafka publisher initialized", "brokers", brokers)

	return &KafkaPublisher{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, subject string, body []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: subject,
		Value: sarama.ByteEncoder(body),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "message sent to kafka", "topic", subject, "partition", partition, "offset", offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
