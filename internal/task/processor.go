package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/generation"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/google/uuid"
)

// AltTextProcessor generates alt-text proposals for the items of a job.
type AltTextProcessor struct {
	jobs      JobRepository
	proposals ProposalRepository
	providers Providers
	telemetry *observability.Telemetry
	logger    *slog.Logger
}

// NewAltTextProcessor creates a processor. A nil telemetry uses the global
// OpenTelemetry providers.
func NewAltTextProcessor(jobs JobRepository, proposals ProposalRepository, providers Providers,
	telemetry *observability.Telemetry, logger *slog.Logger,
) *AltTextProcessor {
	if telemetry == nil {
		telemetry = observability.Global()
	}
	return &AltTextProcessor{
		jobs:      jobs,
		proposals: proposals,
		providers: providers,
		telemetry: telemetry,
		logger:    logger.With("component", "alt_text_processor"),
	}
}

// Execute runs a job to completion. Finished jobs are left untouched, so a
// duplicate delivery is a no-op. A job interrupted part way resumes after
// the last item recorded in its progress.
//
// When ctx ends the job is left in processing and ctx's error is returned;
// the caller decides whether that is a timeout or a shutdown. Any other
// error marks the job failed.
func (p *AltTextProcessor) Execute(ctx context.Context, jobID uuid.UUID) (err error) {
	ctx, span := p.telemetry.StartJob(ctx, jobID.String())
	defer func() { observability.EndSpan(span, err) }()

	started := time.Now()
	logger := p.logger.With("job_id", jobID)

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job.Status.IsTerminal() {
		logger.Debug("job already finished", "status", job.Status)
		return nil
	}

	job, err = p.jobs.Update(ctx, jobID, func(j *domain.Job) error {
		j.Status = domain.JobStatusProcessing
		if j.StartedAt == nil {
			now := time.Now().UTC()
			j.StartedAt = &now
		}
		return nil
	})
	if errors.Is(err, store.ErrJobTerminal) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	proposalCount, err := p.run(ctx, job, logger)
	final := context.WithoutCancel(ctx)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("job failed", "error", err)
		if _, markErr := p.jobs.MarkFailed(final, jobID, err.Error()); markErr != nil && !errors.Is(markErr, store.ErrJobTerminal) {
			logger.Error("failed to mark job failed", "error", markErr)
		}
		p.telemetry.Metrics.RecordJob(final, string(domain.JobStatusFailed), time.Since(started))
		return err
	}

	total := len(job.ItemIDs)
	_, err = p.jobs.Update(final, jobID, func(j *domain.Job) error {
		now := time.Now().UTC()
		j.Status = domain.JobStatusCompleted
		j.CompletedAt = &now
		j.Progress = domain.NewProgress(total, total)
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrJobTerminal) {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	p.telemetry.Metrics.RecordJob(final, string(domain.JobStatusCompleted), time.Since(started))
	logger.Info("job completed",
		"item_count", total,
		"proposal_count", proposalCount,
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

// run processes the remaining items and returns the number of proposals.
func (p *AltTextProcessor) run(ctx context.Context, job *domain.Job, logger *slog.Logger) (int, error) {
	cms, err := p.providers.CMS(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open cms client: %w", err)
	}
	defer func() {
		if err := cms.Close(); err != nil {
			logger.Warn("failed to close cms client", "error", err)
		}
	}()

	gen, err := p.providers.Generator(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to create generator: %w", err)
	}

	items, err := cms.GetAllCollectionItems(ctx, job.CollectionID, job.ItemIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch items: %w", err)
	}
	byID := make(map[string]webflow.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	proposals, err := p.proposals.List(ctx, job.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load proposals: %w", err)
	}

	total := len(job.ItemIDs)
	resume := min(max(job.Progress.Processed, 0), total)
	if resume > 0 {
		logger.Info("resuming job", "processed", resume, "total", total, "proposal_count", len(proposals))
	}

	for idx := resume; idx < total; idx++ {
		if err := ctx.Err(); err != nil {
			return len(proposals), err
		}

		itemID := job.ItemIDs[idx]
		// An item interrupted after its proposals were saved is redone.
		proposals = withoutItem(proposals, itemID)

		item, ok := byID[itemID]
		if !ok {
			logger.Warn("item not found in collection, skipping", "item_id", itemID)
			p.telemetry.Metrics.RecordItem(ctx, observability.OutcomeSkipped)
		} else {
			generated, err := p.processItem(ctx, gen, job, item)
			if err != nil {
				if ctx.Err() != nil {
					return len(proposals), ctx.Err()
				}
				logger.Error("item failed", "item_id", itemID, "error", err)
				p.telemetry.Metrics.RecordItem(ctx, observability.OutcomeFailure)
			} else {
				proposals = append(proposals, generated...)
				p.telemetry.Metrics.RecordItem(ctx, observability.OutcomeSuccess)
			}
		}

		if err := p.proposals.Save(ctx, job.ID, proposals); err != nil {
			return len(proposals), fmt.Errorf("failed to save proposals: %w", err)
		}
		progress := domain.NewProgress(idx+1, total)
		if _, err := p.jobs.Update(ctx, job.ID, func(j *domain.Job) error {
			j.Progress = progress
			return nil
		}); err != nil {
			return len(proposals), fmt.Errorf("failed to update progress: %w", err)
		}
	}

	return len(proposals), nil
}

// processItem generates a proposal for every selected image of an item. Any
// generation error drops all proposals of the item.
func (p *AltTextProcessor) processItem(ctx context.Context, gen generation.Generator, job *domain.Job,
	item webflow.Item,
) (_ []*domain.Proposal, err error) {
	ctx, span := p.telemetry.StartItem(ctx, item.ID)
	defer func() { observability.EndSpan(span, err) }()

	name := item.Name(item.ID)
	var out []*domain.Proposal

	for _, slot := range domain.ImageSlots {
		if !job.WantsImage(item.ID, slot) {
			continue
		}
		url := item.ImageURL(slot)
		if url == "" {
			continue
		}

		current := item.Text(domain.AltTextField(slot))
		text, err := p.generate(ctx, gen, generation.Request{
			ImageURL:    url,
			ProjectName: name,
			ExistingAlt: current,
			FieldName:   slot,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate alt text for %s: %w", slot, err)
		}

		proposal := domain.NewProposal(job.ID, item.ID, slot, text, gen.Model())
		proposal.ItemName = name
		proposal.ImageURL = url
		proposal.CurrentText = current
		out = append(out, proposal)
	}

	return out, nil
}

func (p *AltTextProcessor) generate(ctx context.Context, gen generation.Generator, req generation.Request) (_ string, err error) {
	ctx, span := p.telemetry.StartGeneration(ctx, gen.Model(), req.FieldName)
	defer func() { observability.EndSpan(span, err) }()

	text, err := gen.GenerateAltText(ctx, req)
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeFailure
	}
	p.telemetry.Metrics.RecordImage(ctx, gen.Model(), outcome)
	return text, err
}

func withoutItem(proposals []*domain.Proposal, itemID string) []*domain.Proposal {
	out := proposals[:0]
	for _, p := range proposals {
		if p.ItemID != itemID {
			out = append(out, p)
		}
	}
	return out
}
