package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Listener receives the events other processes publish on Channel.
type Listener struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewListener(redisClient *redis.Client, logger *slog.Logger) *Listener {
	return &Listener{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Listen subscribes to Channel and returns once the subscription is
// confirmed. Events are handed to handle one at a time until ctx ends. The
// returned channel is closed when listening stops.
func (l *Listener) Listen(ctx context.Context, handle func(context.Context, Event)) (<-chan struct{}, error) {
	pubsub := l.redisClient.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			_ = pubsub.Close()
		}()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					l.logger.Warn("Skipping malformed event", "channel", msg.Channel, "error", err)
					continue
				}
				handle(ctx, event)
			}
		}
	}()

	l.logger.Debug("Listening for events", "channel", Channel)
	return done, nil
}
