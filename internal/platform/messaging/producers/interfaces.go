package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes job wake-up messages. Publishing is best
// effort everywhere it is called; the durable job row is the source of
// truth and the sweep re-publishes lost wake-ups.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks unprocessable messages where operators can
// inspect them: malformed payloads and jobs that exhausted every attempt.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
