package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of an alt-text generation job.
type JobStatus string

// Possible job status values
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// ImageSlots are the CMS image fields inspected for every item, in order.
var ImageSlots = []string{"1-after", "2-after", "3-after", "4-after"}

// AltTextField returns the CMS field holding the alt text for an image slot.
func AltTextField(slot string) string {
	return slot + "-alt-text"
}

// SecondsPerImage is the estimated generation cost used for duration estimates.
const SecondsPerImage = 3

// Progress reports how many items of a job have been attempted.
type Progress struct {
	Processed  int     `json:"processed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// NewProgress computes the percentage for processed out of total items.
func NewProgress(processed, total int) Progress {
	pct := 0.0
	if total > 0 {
		pct = float64(processed) / float64(total) * 100
	}
	return Progress{Processed: processed, Total: total, Percentage: pct}
}

// Job is a batch request to generate alt text for a set of CMS items.
type Job struct {
	ID           uuid.UUID  `json:"job_id"`
	Status       JobStatus  `json:"status"`
	CollectionID string     `json:"collection_id"`
	ItemIDs      []string   `json:"item_ids"`
	ImageKeys    []string   `json:"image_keys,omitempty"`
	Progress     Progress   `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a queued job after validating its inputs.
func NewJob(collectionID string, itemIDs, imageKeys []string) (*Job, error) {
	if len(itemIDs) == 0 {
		return nil, NewValidationError("item_ids", "at least one item is required")
	}
	for _, id := range itemIDs {
		if strings.TrimSpace(id) == "" {
			return nil, NewValidationError("item_ids", "item ids cannot be empty")
		}
	}
	if collectionID == "" {
		return nil, NewValidationError("collection_id", "collection id is required")
	}
	for _, key := range imageKeys {
		if _, _, err := ParseImageKey(key); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &Job{
		ID:           uuid.New(),
		Status:       JobStatusQueued,
		CollectionID: collectionID,
		ItemIDs:      itemIDs,
		ImageKeys:    imageKeys,
		Progress:     NewProgress(0, len(itemIDs)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ExpectedImages is the number of images the job is expected to describe.
func (j *Job) ExpectedImages() int {
	if len(j.ImageKeys) > 0 {
		return len(j.ImageKeys)
	}
	return len(j.ItemIDs) * len(ImageSlots)
}

// EstimatedDuration returns the submission-time duration estimate in seconds.
func (j *Job) EstimatedDuration() int {
	return j.ExpectedImages() * SecondsPerImage
}

// WantsImage reports whether the job should describe the given slot of an item.
// Jobs without image keys describe every slot.
func (j *Job) WantsImage(itemID, slot string) bool {
	if len(j.ImageKeys) == 0 {
		return true
	}
	want := ImageKey(itemID, slot)
	for _, k := range j.ImageKeys {
		if k == want {
			return true
		}
	}
	return false
}

// ImageKey formats the "itemId:fieldName" selector for one image.
func ImageKey(itemID, slot string) string {
	return itemID + ":" + slot
}

// ParseImageKey splits an "itemId:fieldName" selector.
func ParseImageKey(key string) (itemID, slot string, err error) {
	itemID, slot, ok := strings.Cut(key, ":")
	if !ok || itemID == "" || slot == "" {
		return "", "", NewValidationError("image_keys", fmt.Sprintf("malformed image key %q", key))
	}
	return itemID, slot, nil
}
