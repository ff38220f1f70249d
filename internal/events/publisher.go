// Package events carries brew update events over a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
)

const (
	// StreamKey is the Redis stream for brew update events.
	StreamKey = "stream:brew_updates"

	// DeadLetterStreamKey holds messages that could not be decoded.
	DeadLetterStreamKey = "stream:brew_updates:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout bounds a fire-and-forget publish.
	PublishTimeout = 500 * time.Millisecond

	payloadField = "payload"
)

// Publisher appends brew update events to the stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously and returns its stream ID.
func (p *Publisher) Publish(ctx context.Context, update model.BrewUpdate) (string, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			payloadField: string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged and counted, never returned.
func (p *Publisher) PublishAsync(update model.BrewUpdate) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, update)
		if err != nil {
			p.logger.Warn("failed to publish brew update",
				"brew_id", update.BrewID(),
				"error", err,
			)
			p.metrics.IncEventPublished(metrics.StatusDropped)
			return
		}

		p.logger.Debug("brew update published",
			"brew_id", update.BrewID(),
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished(metrics.StatusSuccess)
	}()
}
