package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// MemoryQueue is a bounded in-process queue. Its contents are lost when the
// process exits, so the runner re-enqueues every unfinished job on Start.
type MemoryQueue struct {
	ids    chan string
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates a queue holding at most size ids.
func NewMemoryQueue(size int, logger *slog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		ids:    make(chan string, size),
		logger: logger.With("component", "memory_queue"),
	}
}

// Enqueue adds a job id without blocking.
func (q *MemoryQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ids <- jobID:
		q.logger.Debug("job enqueued",
			"job_id", jobID,
			"queue_len", len(q.ids),
			"queue_cap", cap(q.ids))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.ids))
	}
}

// Dequeue waits for the next job id.
func (q *MemoryQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id, ok := <-q.ids:
		if !ok {
			return "", ErrQueueClosed
		}
		return id, nil
	}
}

// Len returns the number of waiting ids.
func (q *MemoryQueue) Len() int {
	return len(q.ids)
}

// Durable reports false.
func (q *MemoryQueue) Durable() bool {
	return false
}

// Close stops further enqueues. Ids already queued can still be dequeued.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ids)
		q.logger.Info("job queue closed")
	}
}
