package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/host"
	queuePkg "github.com/jwebster45206/button-commands/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const (
	workerTimeout = 5 * time.Second

	// LeaseKey names the consumer lease. Only the lease holder pops presses,
	// so queued presses are evaluated one at a time in enqueue order.
	LeaseKey = "button-commands:worker-lease"
	leaseTTL = 30 * time.Second
)

// Dequeuer yields queued presses. A nil request means the wait timed out.
type Dequeuer interface {
	BlockingDequeue(ctx context.Context, timeout time.Duration) (*queuePkg.PressRequest, error)
}

// Presser evaluates a press.
type Presser interface {
	Press(ctx context.Context, btn host.Button, player host.Player) press.Result
}

// Worker consumes the press queue and evaluates presses one at a time.
type Worker struct {
	id          string
	queue       Dequeuer
	presser     Presser
	redisClient *redis.Client
	log         *slog.Logger
	pollTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(q Dequeuer, presser Presser, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       q,
		presser:     presser,
		redisClient: redisClient,
		log:         log,
		pollTimeout: workerTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start processes presses until Stop is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)
	defer w.releaseLease()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing press", "error", err, "worker_id", w.id)
				// Continue processing even on error
				w.sleep(time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

// processNextRequest pulls the next press from the queue and evaluates it.
func (w *Worker) processNextRequest() error {
	held, err := w.holdLease()
	if err != nil {
		return fmt.Errorf("failed to acquire worker lease: %w", err)
	}
	if !held {
		// Another worker owns the queue.
		w.sleep(w.pollTimeout)
		return nil
	}

	// Redis blocks for at least a second regardless of pollTimeout.
	ctx, cancel := context.WithTimeout(w.ctx, max(w.pollTimeout, time.Second)+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, w.pollTimeout)
	if err != nil {
		if w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to dequeue press: %w", err)
	}
	if req == nil {
		return nil
	}

	w.processRequest(req)
	return nil
}

func (w *Worker) processRequest(req *queuePkg.PressRequest) {
	start := time.Now()
	res := w.presser.Press(w.ctx, &req.Button, &req.Player)

	w.log.Info("Press processed",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"button_id", req.Button.ButtonID,
		"player_id", req.Player.ID,
		"outcome", res.Outcome,
		"commands", len(res.Commands),
		"queued_ms", start.Sub(req.EnqueuedAt).Milliseconds(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// holdLease acquires the consumer lease or extends it when already held.
func (w *Worker) holdLease() (bool, error) {
	ok, err := w.redisClient.SetNX(w.ctx, LeaseKey, w.id, leaseTTL).Result()
	if err != nil {
		return false, err
	}
	if ok {
		w.log.Info("Worker lease acquired", "worker_id", w.id)
		return true, nil
	}

	extended, err := extendLease.Run(w.ctx, w.redisClient, []string{LeaseKey}, w.id, leaseTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return extended == 1, nil
}

func (w *Worker) releaseLease() {
	// The worker context is already cancelled here.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseLease.Run(ctx, w.redisClient, []string{LeaseKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release worker lease", "error", err, "worker_id", w.id)
	}
}

// Only the owner may extend or delete the lease.
var (
	extendLease = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
	releaseLease = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
)
