package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/usecase/processing"
)

// RedisBus carries progress events over Redis pub/sub so every API
// instance can fan them out to its own WebSocket clients.
type RedisBus struct {
	client      *redis.Client
	topicPrefix string
	logger      *zap.Logger
}

// NewRedisBus creates a progress event bus on Redis
func NewRedisBus(client *redis.Client, topicPrefix string, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client:      client,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// Topic returns the pub/sub channel for a meeting
func (b *RedisBus) Topic(meetingID uuid.UUID) string {
	return fmt.Sprintf("%s%s/processing", strings.TrimPrefix(b.topicPrefix, "/"), meetingID)
}

// Publish sends a progress event to the meeting's topic
func (b *RedisBus) Publish(ctx context.Context, meetingID uuid.UUID, event processing.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.Topic(meetingID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe streams a meeting's progress events until the returned
// cancel function is called.
func (b *RedisBus) Subscribe(ctx context.Context, meetingID uuid.UUID) (<-chan processing.Event, func()) {
	sub := b.client.Subscribe(ctx, b.Topic(meetingID))
	events := make(chan processing.Event, 16)

	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var event processing.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("dropping malformed progress event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return events, cancel
}
