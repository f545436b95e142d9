package kafka

import (
	"Attestor/internal/api/config"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// SubmissionEvent 提交生命周期事件
type SubmissionEvent struct {
	Type       string    `json:"type"`
	VideoHash  string    `json:"videoHash"`
	MediaType  string    `json:"mediaType"`
	TxID       *string   `json:"txId"`
	ClientID   string    `json:"clientId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher publishes submission events; delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event *SubmissionEvent) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *SubmissionEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }

type saramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewEventPublisher returns a NoopPublisher when no brokers are configured.
func NewEventPublisher(cfg config.KafkaConfig) (EventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("Kafka brokers not configured, submission events disabled")
		return NoopPublisher{}, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "kafka: create producer")
	}
	log.Info("Kafka producer started", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewSaramaPublisher(producer, cfg.Topic), nil
}

func NewSaramaPublisher(producer sarama.SyncProducer, topic string) EventPublisher {
	return &saramaPublisher{producer: producer, topic: topic}
}

func (s *saramaPublisher) Publish(ctx context.Context, event *SubmissionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "kafka: encode event")
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.VideoHash),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return errors.Wrapf(err, "kafka: send %s", event.Type)
	}

	log.DebugContext(ctx, "Submission event published",
		"type", event.Type,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (s *saramaPublisher) Close() error {
	return s.producer.Close()
}
