package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/redact"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
)

// Dispatcher hands a stored job to background execution. The job id is the
// handle callers poll.
type Dispatcher interface {
	Submit(ctx context.Context, jobID uuid.UUID) error
}

// KeySource resolves managed keys. *secrets.Manager satisfies it.
type KeySource interface {
	Value(ctx context.Context, name string) string
}

// CMSProvider opens CMS clients. The caller closes them.
type CMSProvider interface {
	CMS(ctx context.Context) (webflow.Client, error)
}

// CreateJobRequest is the input of JobService.CreateJob.
type CreateJobRequest struct {
	ItemIDs      []string
	CollectionID string
	ImageKeys    []string
}

// FieldUpdate is one reviewed field value to write to the CMS.
type FieldUpdate struct {
	ItemID    string
	FieldName string
	Value     string
}

// ItemResult is the outcome of the single CMS update issued for one item.
type ItemResult struct {
	ItemID  string   `json:"item_id"`
	Success bool     `json:"success"`
	Fields  []string `json:"fields"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ApplyResult summarizes an Apply call. Counts are per field.
type ApplyResult struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Results      []ItemResult `json:"results"`
}

// JobService creates and reads alt-text jobs and applies their results.
type JobService struct {
	jobs       *store.JobStore
	proposals  *store.ProposalStore
	dispatcher Dispatcher
	keys       KeySource
	cms        CMSProvider
	logger     *slog.Logger
}

// NewJobService creates a JobService.
func NewJobService(
	jobs *store.JobStore,
	proposals *store.ProposalStore,
	dispatcher Dispatcher,
	keys KeySource,
	cms CMSProvider,
	logger *slog.Logger,
) *JobService {
	return &JobService{
		jobs:       jobs,
		proposals:  proposals,
		dispatcher: dispatcher,
		keys:       keys,
		cms:        cms,
		logger:     logger.With("component", "job_service"),
	}
}

// CreateJob validates the request, stores a queued job and submits it for
// execution. It returns the job and the estimated duration in seconds.
// A failed submission is logged and leaves the job queued for recovery.
func (s *JobService) CreateJob(ctx context.Context, req CreateJobRequest) (*domain.Job, int, error) {
	itemIDs := dedupe(req.ItemIDs)
	if len(itemIDs) == 0 {
		return nil, 0, domain.NewValidationError("item_ids", "at least one item is required")
	}

	collectionID := strings.TrimSpace(req.CollectionID)
	if collectionID == "" {
		collectionID = s.keys.Value(ctx, secrets.WebflowCollectionID)
	}
	if collectionID == "" {
		return nil, 0, domain.NewValidationError("collection_id", "collection_id required")
	}

	job, err := domain.NewJob(collectionID, itemIDs, dedupe(req.ImageKeys))
	if err != nil {
		return nil, 0, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "failed to store job", "error", err, "job_id", job.ID)
		return nil, 0, NewServiceError("create_job", "failed to store job", err)
	}

	if err := s.dispatcher.Submit(ctx, job.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to submit job, left queued for recovery",
			"error", err,
			"job_id", job.ID)
	}

	s.logger.InfoContext(ctx, "job created",
		"job_id", job.ID,
		"collection_id", collectionID,
		"item_count", len(job.ItemIDs),
		"image_keys_count", len(job.ImageKeys))

	return job, job.EstimatedDuration(), nil
}

// GetJob returns a job by id.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, NewServiceError("get_job", "failed to load job", err)
	}
	return job, nil
}

// GetProposals returns the proposals of a completed job.
func (s *JobService) GetProposals(ctx context.Context, id uuid.UUID) (*domain.Job, []*domain.Proposal, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != domain.JobStatusCompleted {
		return job, nil, fmt.Errorf("%w: current status %s", ErrJobNotReady, job.Status)
	}

	proposals, err := s.proposals.List(ctx, id)
	if err != nil {
		return nil, nil, NewServiceError("get_proposals", "failed to load proposals", err)
	}
	return job, proposals, nil
}

// ListJobs returns all jobs, newest first.
func (s *JobService) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, NewServiceError("list_jobs", "failed to list jobs", err)
	}
	return jobs, nil
}

// Apply writes reviewed values to the CMS. Updates are grouped by item in
// the order items first appear, and each item gets one update covering all
// of its fields. A failed item does not stop the others.
func (s *JobService) Apply(ctx context.Context, updates []FieldUpdate) (*ApplyResult, error) {
	if len(updates) == 0 {
		return nil, domain.NewValidationError("updates", "at least one update is required")
	}
	for _, u := range updates {
		if u.ItemID == "" || u.FieldName == "" {
			return nil, domain.NewValidationError("updates", "item_id and field_name are required")
		}
	}

	collectionID := s.keys.Value(ctx, secrets.WebflowCollectionID)
	if collectionID == "" {
		return nil, domain.NewValidationError("collection_id", "webflow collection id is not configured")
	}

	cms, err := s.cms.CMS(ctx)
	if err != nil {
		return nil, NewServiceError("apply", "failed to open cms client", err)
	}
	defer func() { _ = cms.Close() }()

	order := make([]string, 0, len(updates))
	byItem := make(map[string]map[string]any, len(updates))
	fieldOrder := make(map[string][]string, len(updates))
	for _, u := range updates {
		fields, ok := byItem[u.ItemID]
		if !ok {
			fields = map[string]any{}
			byItem[u.ItemID] = fields
			order = append(order, u.ItemID)
		}
		if _, seen := fields[u.FieldName]; !seen {
			fieldOrder[u.ItemID] = append(fieldOrder[u.ItemID], u.FieldName)
		}
		fields[u.FieldName] = u.Value
	}

	result := &ApplyResult{Results: make([]ItemResult, 0, len(order))}
	for _, itemID := range order {
		fields := fieldOrder[itemID]
		if _, err := cms.UpdateItem(ctx, collectionID, itemID, byItem[itemID]); err != nil {
			s.logger.ErrorContext(ctx, "failed to update item",
				"error", err,
				"item_id", itemID,
				"field_count", len(fields))
			result.FailureCount += len(fields)
			result.Results = append(result.Results, ItemResult{
				ItemID: itemID,
				Fields: fields,
				Error:  redact.Error(err),
			})
			continue
		}

		result.SuccessCount += len(fields)
		result.Results = append(result.Results, ItemResult{
			ItemID:  itemID,
			Success: true,
			Fields:  fields,
			Message: fmt.Sprintf("Successfully updated %d field(s)", len(fields)),
		})
	}

	s.logger.InfoContext(ctx, "proposals applied",
		"item_count", len(order),
		"success_count", result.SuccessCount,
		"failure_count", result.FailureCount)

	return result, nil
}

// dedupe drops blank and repeated entries, keeping first occurrences.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
