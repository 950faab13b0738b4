package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/segmentio/kafka-go"
)

// PaymentJobProducer publishes job wake-up messages for the payment
// processor. Messages are best-effort: the durable job row is already
// committed when Publish is called, and the recovery sweep re-publishes
// queued jobs whose message never arrived.
type PaymentJobProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewPaymentJobProducer creates the producer and ensures the topic exists
func NewPaymentJobProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PaymentJobProducer, error) {
	if cfg.PaymentJobTopic == "" {
		return nil, fmt.Errorf("kafka payment job topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for payment job producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.PaymentJobTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure payment job topic %s exists: %w", cfg.PaymentJobTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PaymentJobTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // ingress latency must not depend on broker round trips
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.PaymentJobTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.PaymentJobTopic, "count", len(messages))
			}
		},
	}

	return &PaymentJobProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PaymentJobTopic,
	}, nil
}

func (p *PaymentJobProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal payment job message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish payment job message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish payment job message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published payment job message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *PaymentJobProducer) Close() error {
	p.logger.Info("Closing payment job Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close payment job kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
