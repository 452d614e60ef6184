package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: logger, writer: mockWriter, dlqTopic: "test-dlq"}

		key := "cmd-123"
		original := []byte(`{"command_type":"REPAYMENT"}`)
		reason := "unknown command type"

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			if string(msg.Key) != key {
				return false
			}
			var payload struct {
				OriginalValue string `json:"original_value"`
				DLQReason     string `json:"dlq_reason"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				return false
			}
			return payload.OriginalValue == string(original) && payload.DLQReason == reason
		})).Return(nil).Once()

		err := producer.PublishToDLQ(ctx, key, original, reason)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: logger, writer: mockWriter, dlqTopic: "test-dlq"}
		writerError := errors.New("kafka write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.PublishToDLQ(ctx, "cmd-123", []byte("{}"), "bad payload")
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
	})

	t.Run("NilProducerReturnsError", func(t *testing.T) {
		var producer *DLQProducer
		err := producer.PublishToDLQ(ctx, "cmd-123", []byte("{}"), "bad payload")
		assert.Error(t, err)
	})
}
