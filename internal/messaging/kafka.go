package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
)

const userInteractionsDLQSuffix = "-dlq"

// UserInteractionEvent is the opaque trigger consumed from the
// user_interactions topic owned by the library/rating collaborator. The
// recommendation core does not own interaction data; it only reacts to the
// fact that one changed, by marking the user's profile stale.
type UserInteractionEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	MediaID   uuid.UUID `json:"media_id"`
	Type      string    `json:"interaction_type"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageBus wraps a single consumer over the user_interactions topic plus
// a dead-letter writer for events that fail processing after retries.
type MessageBus struct {
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	logger    *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	topic := cfg.Kafka.Topics.UserInteractions

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        cfg.Kafka.ConsumerGroup,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic + userInteractionsDLQSuffix,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &MessageBus{reader: reader, dlqWriter: dlqWriter, logger: logger}, nil
}

// Consume reads user_interactions events until ctx is cancelled, invoking
// handler for each. handler failures are retried with exponential backoff;
// after the retry budget is exhausted the event is sent to the DLQ and
// consumption continues — one bad event must not stall the whole pipeline.
func (mb *MessageBus) Consume(ctx context.Context, handler func(UserInteractionEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := mb.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			mb.logger.WithError(err).Error("failed to read user_interactions message")
			continue
		}

		var event UserInteractionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			mb.logger.WithError(err).Warn("failed to unmarshal user_interactions message")
			continue
		}

		if err := mb.processWithRetry(ctx, event, handler); err != nil {
			mb.logger.WithError(err).WithField("user_id", event.UserID).Error("dropping user_interactions event after retries")
			if dlqErr := mb.sendToDLQ(ctx, event, err); dlqErr != nil {
				mb.logger.WithError(dlqErr).Error("failed to send event to DLQ")
			}
		}
	}
}

func (mb *MessageBus) processWithRetry(ctx context.Context, event UserInteractionEvent, handler func(UserInteractionEvent) error) error {
	const maxRetries = 3
	baseDelay := time.Second

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := handler(event); err != nil {
			lastErr = err
			mb.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": event.UserID,
				"attempt": attempt,
			}).Warn("user_interactions handler failed")
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, event UserInteractionEvent, originalErr error) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event":         event,
		"error":         originalErr.Error(),
		"dlq_timestamp": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "user_id", Value: []byte(event.UserID.String())},
			{Key: "error", Value: []byte(originalErr.Error())},
		},
	}
	return mb.dlqWriter.WriteMessages(ctx, msg)
}

func (mb *MessageBus) Close() error {
	var errs []error
	if err := mb.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close reader: %w", err))
	}
	if err := mb.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close DLQ writer: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing message bus: %v", errs)
	}
	return nil
}

// Metrics returns a snapshot of the reader's stats as a plain map.
func (mb *MessageBus) Metrics() map[string]interface{} {
	stats := mb.reader.Stats()
	return map[string]interface{}{
		"consumer_lag":    stats.Lag,
		"consumer_offset": stats.Offset,
		"messages_read":   stats.Messages,
		"bytes_read":      stats.Bytes,
		"rebalances":      stats.Rebalances,
		"timeouts":        stats.Timeouts,
		"errors":          stats.Errors,
	}
}
