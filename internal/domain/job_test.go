package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job, err := NewJob("col-1", []string{"a", "b"}, nil)

	require.NoError(t, err)
	assert.Equal(t, JobStatusQueued, job.Status)
	assert.Equal(t, Progress{Processed: 0, Total: 2, Percentage: 0}, job.Progress)
	assert.Equal(t, 24, job.EstimatedDuration())
	assert.Nil(t, job.StartedAt)
}

func TestNewJobValidation(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		items      []string
		keys       []string
		field      string
	}{
		{name: "no items", collection: "c", items: nil, field: "item_ids"},
		{name: "blank item", collection: "c", items: []string{" "}, field: "item_ids"},
		{name: "no collection", collection: "", items: []string{"a"}, field: "collection_id"},
		{name: "malformed image key", collection: "c", items: []string{"a"}, keys: []string{"a-1-after"}, field: "image_keys"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJob(tt.collection, tt.items, tt.keys)

			require.ErrorIs(t, err, ErrValidation)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestJobImageSelection(t *testing.T) {
	job, err := NewJob("c", []string{"a", "b"}, []string{"a:1-after", "b:3-after", "b:4-after"})
	require.NoError(t, err)

	assert.Equal(t, 3, job.ExpectedImages())
	assert.Equal(t, 9, job.EstimatedDuration())
	assert.True(t, job.WantsImage("a", "1-after"))
	assert.False(t, job.WantsImage("a", "2-after"))
	assert.True(t, job.WantsImage("b", "4-after"))

	all, err := NewJob("c", []string{"a"}, nil)
	require.NoError(t, err)
	assert.True(t, all.WantsImage("a", "2-after"))
}

func TestJobStatusIsTerminal(t *testing.T) {
	assert.False(t, JobStatusQueued.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatus("paused").Valid())
}

func TestNewProgress(t *testing.T) {
	assert.InDelta(t, 33.333, NewProgress(1, 3).Percentage, 0.001)
	assert.InDelta(t, 50.0, NewProgress(1, 2).Percentage, 0)
	assert.Equal(t, 100.0, NewProgress(3, 3).Percentage)
	assert.Equal(t, 0.0, NewProgress(0, 0).Percentage)
}

func TestNewProposal(t *testing.T) {
	job, err := NewJob("c", []string{"a"}, nil)
	require.NoError(t, err)

	p := NewProposal(job.ID, "a", "2-after", "A red bicycle", "gpt-4o-mini")

	assert.Equal(t, "2-after-alt-text", p.FieldName)
	assert.Equal(t, "2-after", p.ImageField)
	assert.Equal(t, DefaultConfidence, p.ConfidenceScore)
	assert.Equal(t, job.ID, p.JobID)
}
