package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the Pub/Sub channel every button event is published on.
const Channel = "button-commands:events"

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeButtonPressed    EventType = "button.pressed"
	EventTypeButtonGated      EventType = "button.gated"
	EventTypeButtonRegistered EventType = "button.registered"
	EventTypeButtonUpdated    EventType = "button.updated"
)

// Event represents a generic event structure
type Event struct {
	Type     EventType      `json:"type"`
	ButtonID uint64         `json:"button_id"`
	PlayerID uint64         `json:"player_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes button events to Redis Pub/Sub for dashboards and
// audit consumers.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishButtonPressed publishes a button.pressed event
func (b *Broadcaster) PublishButtonPressed(ctx context.Context, buttonID, playerID uint64, commands int, suppressOutput bool) error {
	return b.publish(ctx, Event{
		Type:     EventTypeButtonPressed,
		ButtonID: buttonID,
		PlayerID: playerID,
		Data: map[string]any{
			"commands":        commands,
			"suppress_output": suppressOutput,
		},
	})
}

// PublishPressGated publishes a button.gated event
func (b *Broadcaster) PublishPressGated(ctx context.Context, buttonID, playerID uint64, remaining time.Duration) error {
	return b.publish(ctx, Event{
		Type:     EventTypeButtonGated,
		ButtonID: buttonID,
		PlayerID: playerID,
		Data: map[string]any{
			"remaining_seconds": remaining.Seconds(),
		},
	})
}

// PublishButtonRegistered publishes a button.registered event
func (b *Broadcaster) PublishButtonRegistered(ctx context.Context, buttonID, playerID uint64) error {
	return b.publish(ctx, Event{
		Type:     EventTypeButtonRegistered,
		ButtonID: buttonID,
		PlayerID: playerID,
	})
}

// PublishButtonUpdated publishes a button.updated event
func (b *Broadcaster) PublishButtonUpdated(ctx context.Context, buttonID uint64) error {
	return b.publish(ctx, Event{
		Type:     EventTypeButtonUpdated,
		ButtonID: buttonID,
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, Channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", Channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", Channel,
		"event_type", event.Type,
		"button_id", event.ButtonID,
	)

	return nil
}
