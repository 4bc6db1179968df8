package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job event types.
const (
	JobCompleted = "job.completed"
	JobFailed    = "job.failed"
)

// JobEvent reports that a job reached a terminal state.
type JobEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is JobCompleted or JobFailed
	Type string `json:"type"`

	JobID         uuid.UUID `json:"job_id"`
	ItemCount     int       `json:"item_count"`
	ProposalCount int       `json:"proposal_count"`
	Error         string    `json:"error,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewJobCompletedEvent creates the event for a completed job.
func NewJobCompletedEvent(jobID uuid.UUID, itemCount, proposalCount int) *JobEvent {
	return &JobEvent{
		ID:            uuid.New(),
		Type:          JobCompleted,
		JobID:         jobID,
		ItemCount:     itemCount,
		ProposalCount: proposalCount,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewJobFailedEvent creates the event for a failed job.
func NewJobFailedEvent(jobID uuid.UUID, itemCount int, message string) *JobEvent {
	return &JobEvent{
		ID:        uuid.New(),
		Type:      JobFailed,
		JobID:     jobID,
		ItemCount: itemCount,
		Error:     message,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *JobEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *JobEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *JobEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *JobEvent) error {
	return f(ctx, event)
}
