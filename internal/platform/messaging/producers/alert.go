package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-ledger/internal/config"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// AlertProducer publishes finance alerts (trial-balance imbalances, liquidity
// shortfalls) to a dedicated topic. Alerts are written synchronously with full
// acks: losing one defeats the point of raising it.
type AlertProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewAlertProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AlertProducer, error) {
	if cfg.AlertTopic == "" {
		return nil, fmt.Errorf("kafka alert topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for alert producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, cfg.AlertTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure alert topic %s exists: %w", cfg.AlertTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &AlertProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.AlertTopic,
	}, nil
}

// Publish implements engine.AlertPublisher.
func (p *AlertProducer) Publish(ctx context.Context, alert shared.Alert) error {
	jsonValue, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.Type),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: "alert-type", Value: []byte(alert.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish alert",
			"topic", p.topic,
			"alert_type", alert.Type,
			"error", err,
		)
		return fmt.Errorf("failed to publish alert to %s: %w", p.topic, err)
	}

	p.logger.Info("Published alert",
		"topic", p.topic,
		"alert_type", alert.Type,
	)
	return nil
}

func (p *AlertProducer) Close() error {
	p.logger.Info("Closing alert Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close alert kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
