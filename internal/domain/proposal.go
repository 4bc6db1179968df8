package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultConfidence is the confidence recorded for generated proposals.
const DefaultConfidence = 0.9

// Proposal is a generated alt-text suggestion for one image field of one item.
type Proposal struct {
	ID              uuid.UUID `json:"proposal_id"`
	JobID           uuid.UUID `json:"job_id"`
	ItemID          string    `json:"item_id"`
	ItemName        string    `json:"item_name,omitempty"`
	ImageField      string    `json:"image_field"`
	FieldName       string    `json:"field_name"`
	ImageURL        string    `json:"image_url,omitempty"`
	CurrentText     string    `json:"current_text,omitempty"`
	ProposedText    string    `json:"proposed_text"`
	ConfidenceScore float64   `json:"confidence_score"`
	ModelUsed       string    `json:"model_used"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// NewProposal creates a proposal for the alt-text field belonging to slot.
func NewProposal(jobID uuid.UUID, itemID, slot, text, model string) *Proposal {
	return &Proposal{
		ID:              uuid.New(),
		JobID:           jobID,
		ItemID:          itemID,
		ImageField:      slot,
		FieldName:       AltTextField(slot),
		ProposedText:    text,
		ConfidenceScore: DefaultConfidence,
		ModelUsed:       model,
		GeneratedAt:     time.Now().UTC(),
	}
}
