// Package kafka publishes fire-risk escalation alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/emberwatch/fire-risk-service/internal/config"
	"github.com/emberwatch/fire-risk-service/internal/pipeline"
)

// AlertPublisher produces escalation alerts to a Kafka topic.
// It implements pipeline.AlertSink.
type AlertPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAlertPublisher creates a Kafka producer for the configured alerts topic.
func NewAlertPublisher(cfg *config.Config, logger *slog.Logger) *AlertPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AlertPublisher{writer: w, logger: logger}
}

// PublishAlert serializes and publishes one alert, blocking until the
// brokers acknowledge it.
func (p *AlertPublisher) PublishAlert(ctx context.Context, alert pipeline.Alert) error {
	msg, err := serializeAlert(alert)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert for region %s: %w", alert.RegionID, err)
	}
	p.logger.Info("alert published", "region", alert.RegionID, "alert_level", alert.AlertLevel)
	return nil
}

func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}

// serializeAlert marshals an alert into a Kafka message keyed by region id,
// so consumers see each region's alerts in publish order.
func serializeAlert(alert pipeline.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.RegionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_level", Value: []byte(alert.AlertLevel)},
			{Key: "generated_at", Value: []byte(alert.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
