package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list shared by API and worker processes.
const DefaultQueueKey = "altscribe:queue:jobs"

// pollTimeout bounds each BRPOP so shutdown is noticed promptly.
const pollTimeout = time.Second

// ErrQueueClosed is returned by Enqueue and Dequeue after Close.
var ErrQueueClosed = errors.New("redis queue is closed")

// Queue is a FIFO of job ids on a Redis list (LPUSH producers, BRPOP consumers).
// Entries survive process restarts.
type Queue struct {
	client *goredis.Client
	key    string
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue on the given list key.
func NewQueue(client *goredis.Client, key string, logger *slog.Logger) *Queue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Queue{
		client: client,
		key:    key,
		logger: logger.With("component", "redis_queue", "queue_key", key),
	}
}

// Enqueue appends a job id.
func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	n, err := q.client.LPush(ctx, q.key, jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	q.logger.Debug("job enqueued", "job_id", jobID, "queue_len", n)
	return nil
}

// Dequeue blocks until a job id is available, ctx is done or the queue is closed.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	for {
		if q.isClosed() {
			return "", ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		res, err := q.client.BRPop(ctx, pollTimeout, q.key).Result()
		switch {
		case errors.Is(err, goredis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			q.logger.Warn("dequeue failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(pollTimeout):
			}
			continue
		}

		// BRPOP returns [key, value].
		if len(res) == 2 {
			return res[1], nil
		}
	}
}

// Len returns the number of waiting job ids.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Durable reports true: queued ids outlive the process.
func (q *Queue) Durable() bool {
	return true
}

// Close stops further enqueues and wakes consumers on their next poll.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.logger.Info("job queue closed")
	}
}

func (q *Queue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
