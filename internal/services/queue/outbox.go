package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/host"
	"github.com/jwebster45206/button-commands/pkg/queue"
)

const (
	CommandsKey = "button-commands:commands"
	RepliesKey  = "button-commands:replies"
)

// Outbox queues rendered commands and player replies in Redis for the host
// to execute. It is the press evaluator's Dispatcher and Replier when Redis
// is configured.
type Outbox struct {
	client *Client
	now    func() time.Time
}

func NewOutbox(client *Client) *Outbox {
	return &Outbox{
		client: client,
		now:    time.Now,
	}
}

// Dispatch appends a command to the commands list.
func (o *Outbox) Dispatch(ctx context.Context, cmd press.Command) error {
	target := queue.TargetServer
	if cmd.RunsAsPlayer() {
		target = queue.TargetPlayer
	}
	env := queue.CommandEnvelope{
		ID:       uuid.New(),
		Type:     cmd.Type.String(),
		Target:   target,
		PlayerID: cmd.PlayerID,
		Text:     cmd.Text,
		Console:  cmd.ConsoleLine(),
		IssuedAt: o.now(),
	}
	return o.push(ctx, CommandsKey, env)
}

// Reply appends a player message to the replies list.
func (o *Outbox) Reply(ctx context.Context, player host.Player, message string) error {
	env := queue.ReplyEnvelope{
		ID:       uuid.New(),
		PlayerID: player.UserIDString(),
		Message:  message,
		IssuedAt: o.now(),
	}
	return o.push(ctx, RepliesKey, env)
}

func (o *Outbox) push(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s entry: %w", key, err)
	}
	if err := o.client.rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s entry: %w", key, err)
	}
	return nil
}

// DrainCommands removes and returns every queued command, oldest first.
func (o *Outbox) DrainCommands(ctx context.Context) ([]queue.CommandEnvelope, error) {
	raw, err := o.drain(ctx, CommandsKey)
	if err != nil {
		return nil, err
	}
	out := make([]queue.CommandEnvelope, 0, len(raw))
	for _, item := range raw {
		var env queue.CommandEnvelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			o.client.logger.Warn("Dropping malformed command entry", "error", err)
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

// DrainReplies removes and returns every queued reply, oldest first.
func (o *Outbox) DrainReplies(ctx context.Context) ([]queue.ReplyEnvelope, error) {
	raw, err := o.drain(ctx, RepliesKey)
	if err != nil {
		return nil, err
	}
	out := make([]queue.ReplyEnvelope, 0, len(raw))
	for _, item := range raw {
		var env queue.ReplyEnvelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			o.client.logger.Warn("Dropping malformed reply entry", "error", err)
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

// drain reads and deletes a list in one transaction so entries pushed
// concurrently are not lost.
func (o *Outbox) drain(ctx context.Context, key string) ([]string, error) {
	pipe := o.client.rdb.TxPipeline()
	rng := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to drain %s: %w", key, err)
	}
	return rng.Val(), nil
}

// Depth returns the number of queued commands and replies.
func (o *Outbox) Depth(ctx context.Context) (commands, replies int, err error) {
	c, err := o.client.rdb.LLen(ctx, CommandsKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get commands depth: %w", err)
	}
	r, err := o.client.rdb.LLen(ctx, RepliesKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get replies depth: %w", err)
	}
	return int(c), int(r), nil
}

var (
	_ press.Dispatcher = (*Outbox)(nil)
	_ press.Replier    = (*Outbox)(nil)
)
