package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher delivers financial commands and operational alerts to
// their topics, keyed so commands for the same aggregate stay ordered.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks commands the processor has judged hopeless,
// preserving the original payload for manual inspection.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the slice of kafka.Writer the producers use, extracted so
// tests can swap in a recorder.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
