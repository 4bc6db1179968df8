package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/export"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// JobHandler serves job submission, status polling, proposals and apply.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Generate handles POST /generate.
func (h *JobHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	job, estimate, err := h.jobs.CreateJob(r.Context(), service.CreateJobRequest{
		ItemIDs:      req.ItemIDs,
		CollectionID: req.CollectionID,
		ImageKeys:    req.ImageKeys,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateResponse{
		JobID:                    job.ID,
		Status:                   job.Status,
		Progress:                 job.Progress,
		EstimatedDurationSeconds: estimate,
	})
}

// ListJobs handles GET /jobs.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	out := make([]JobStatusResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, newJobStatusResponse(j))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"jobs": out, "total": len(out)})
}

// GetJob handles GET /jobs/{id}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newJobStatusResponse(job))
}

// GetProposals handles GET /jobs/{id}/proposals.
func (h *JobHandler) GetProposals(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, proposals, err := h.jobs.GetProposals(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ProposalsResponse{
		JobID:     job.ID,
		Proposals: proposals,
		Total:     len(proposals),
	})
}

// ExportProposals handles GET /jobs/{id}/proposals/export.
func (h *JobHandler) ExportProposals(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, proposals, err := h.jobs.GetProposals(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	timing := observability.StartServerTiming(r.Context(), "xlsx")
	var buf bytes.Buffer
	err = export.WriteProposals(&buf, job, proposals)
	timing.Stop()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, CodeInternal,
			"Failed to export proposals", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(job)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Apply handles POST /apply.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updates := make([]service.FieldUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, service.FieldUpdate{
			ItemID:    u.ItemID,
			FieldName: u.FieldName,
			Value:     u.Value,
		})
	}

	result, err := h.jobs.Apply(r.Context(), updates)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// jobIDParam reads the job id from the path. Job ids are opaque to clients,
// so an id that cannot name a job is reported as not found.
func jobIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.ErrJobNotFound
	}
	return id, nil
}
