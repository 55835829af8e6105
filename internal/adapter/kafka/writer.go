package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/config"
	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// ActivityWriter produces viewer activity to a Kafka topic.
// It implements viewer.ActivityPublisher.
type ActivityWriter struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewActivityWriter creates an asynchronous producer for the configured activity topic.
// Messages are keyed by session id so one session's activity stays ordered.
func NewActivityWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *ActivityWriter {
	w := &ActivityWriter{metrics: metrics, logger: logger}
	w.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaActivityTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           100 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             w.completed,
	}
	metrics.ActivityEnabled.Set(1)
	return w
}

// Publish enqueues event for delivery. It never blocks on the broker;
// delivery failures are logged and counted.
func (w *ActivityWriter) Publish(ctx context.Context, event domain.ActivityEvent) {
	msg, err := serializeActivity(event)
	if err != nil {
		w.metrics.ActivityPublished.WithLabelValues("error").Inc()
		w.logger.Warn("failed to serialize activity", "session_id", event.SessionID, "error", err)
		return
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.ActivityPublished.WithLabelValues("error").Inc()
		w.logger.Warn("failed to enqueue activity", "session_id", event.SessionID, "error", err)
	}
}

// completed is called by the writer once a batch has been delivered or has failed.
func (w *ActivityWriter) completed(messages []kafkago.Message, err error) {
	if err != nil {
		w.metrics.ActivityPublished.WithLabelValues("error").Add(float64(len(messages)))
		w.logger.Warn("failed to publish activity", "count", len(messages), "error", err)
		return
	}
	w.metrics.ActivityPublished.WithLabelValues("success").Add(float64(len(messages)))
}

// Close flushes pending messages and closes the producer.
func (w *ActivityWriter) Close() error {
	return w.writer.Close()
}

// serializeActivity marshals an ActivityEvent into a Kafka message.
func serializeActivity(event domain.ActivityEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize activity: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "activity_kind", Value: []byte(event.Kind)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
