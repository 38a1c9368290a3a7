package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/button-commands/pkg/queue"
	"github.com/redis/go-redis/v9"
)

// PressesKey is the list hosts push press requests onto.
const PressesKey = "button-commands:presses"

// PressQueue carries press requests from asynchronous hosts to the worker.
type PressQueue struct {
	client *Client
}

func NewPressQueue(client *Client) *PressQueue {
	return &PressQueue{
		client: client,
	}
}

// Enqueue adds a press to the end of the queue
func (pq *PressQueue) Enqueue(ctx context.Context, req *queue.PressRequest) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize press request: %w", err)
	}
	if err := pq.client.rdb.RPush(ctx, PressesKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue press request: %w", err)
	}
	return nil
}

// BlockingDequeue waits up to timeout for the next press. It returns nil, nil
// when the timeout passes with nothing queued.
func (pq *PressQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.PressRequest, error) {
	result, err := pq.client.rdb.BLPop(ctx, timeout, PressesKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue press request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.PressRequestFromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse press request: %w", err)
	}
	return req, nil
}

// Depth returns the number of presses waiting
func (pq *PressQueue) Depth(ctx context.Context) (int, error) {
	count, err := pq.client.rdb.LLen(ctx, PressesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get press queue depth: %w", err)
	}
	return int(count), nil
}
