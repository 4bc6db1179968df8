package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/google/uuid"
)

// proposalDocument is the stored form of a job's proposal list.
type proposalDocument struct {
	JobID     uuid.UUID          `json:"job_id"`
	Proposals []*domain.Proposal `json:"proposals"`
}

// ProposalStore persists the proposal list of each job as one document.
type ProposalStore struct {
	col    Collection
	logger *slog.Logger
}

// NewProposalStore creates a ProposalStore on the given backend.
func NewProposalStore(backend Backend, logger *slog.Logger) *ProposalStore {
	return &ProposalStore{
		col:    backend.Collection(CollectionProposals),
		logger: logger.With("component", "proposal_store"),
	}
}

// Save replaces the proposal list of a job.
func (s *ProposalStore) Save(ctx context.Context, jobID uuid.UUID, proposals []*domain.Proposal) error {
	if proposals == nil {
		proposals = []*domain.Proposal{}
	}
	doc := proposalDocument{JobID: jobID, Proposals: proposals}
	if err := PutJSON(ctx, s.col, jobID.String(), doc); err != nil {
		return NewStoreError("proposal", "save", "failed to store proposals", err)
	}
	return nil
}

// List returns the proposals of a job. A job without stored proposals yields
// an empty list.
func (s *ProposalStore) List(ctx context.Context, jobID uuid.UUID) ([]*domain.Proposal, error) {
	doc, err := GetJSON[proposalDocument](ctx, s.col, jobID.String())
	if errors.Is(err, ErrNotFound) {
		return []*domain.Proposal{}, nil
	}
	if err != nil {
		return nil, NewStoreError("proposal", "list", "failed to load proposals", err)
	}
	if doc.Proposals == nil {
		return []*domain.Proposal{}, nil
	}
	return doc.Proposals, nil
}
