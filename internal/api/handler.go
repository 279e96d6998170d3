// Package api serves the JSON report, the upload webhook, and job inspection endpoints.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"orders-lake/internal/domain"
	"orders-lake/internal/service/ingestion"
)

const maxEventBytes = 1 << 20

// ReportService builds reports from the configured query set.
type ReportService interface {
	Build(ctx context.Context) domain.Report
	Queries() []domain.QueryJobSpec
}

// UploadProcessor handles storage event notifications.
type UploadProcessor interface {
	HandleEvent(ctx context.Context, ev ingestion.Event) ([]ingestion.Result, error)
}

// JobReader reads engine job records.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.QueryJob, error)
	ListRecent(ctx context.Context, limit int) ([]domain.QueryJob, error)
}

// JobCanceller stops queued or running engine jobs.
type JobCanceller interface {
	Cancel(ctx context.Context, jobID string) error
}

// APIHandler implements the /v1 endpoints.
type APIHandler struct {
	reports  ReportService
	uploads  UploadProcessor
	jobs     JobReader
	canceler JobCanceller
	logger   *slog.Logger
}

// NewHandler creates an APIHandler. jobs may be nil when no engine registry is
// configured; canceler may be nil to leave jobs read-only.
func NewHandler(reports ReportService, uploads UploadProcessor, jobs JobReader, canceler JobCanceller, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		reports:  reports,
		uploads:  uploads,
		jobs:     jobs,
		canceler: canceler,
		logger:   logger.With("component", "api"),
	}
}

// MountRoutes registers the /v1 routes on r.
func MountRoutes(r chi.Router, h *APIHandler) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/report", h.GetReport)
		r.Get("/queries", h.ListQueries)
		r.Post("/events/upload", h.HandleUploadEvent)
		if h.jobs != nil {
			r.Get("/jobs", h.ListJobs)
			r.Get("/jobs/{jobID}", h.GetJob)
			if h.canceler != nil {
				r.Post("/jobs/{jobID}/cancel", h.CancelJob)
			}
		}
	})
}

// GetReport runs every configured query. It answers 200 even when sections failed.
func (h *APIHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reportToAPI(h.reports.Build(r.Context())))
}

// ListQueries returns the configured query set.
func (h *APIHandler) ListQueries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"queries": h.reports.Queries()})
}

// HandleUploadEvent processes an S3-style event notification.
func (h *APIHandler) HandleUploadEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "event body too large")
		return
	}
	ev, err := ingestion.DecodeEvent(body)
	if err != nil {
		writeError(w, httpStatusFromDomainError(err), err.Error())
		return
	}

	results, err := h.uploads.HandleEvent(r.Context(), ev)
	resp := UploadResponse{Results: make([]UploadResult, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, uploadResultToAPI(res))
	}
	if err != nil {
		status := httpStatusFromDomainError(err)
		h.logger.Warn("upload event failed", "status", status, "error", err)
		resp.Error = err.Error()
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListJobs returns recent engine jobs, newest first.
func (h *APIHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	jobs, err := h.jobs.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, httpStatusFromDomainError(err), err.Error())
		return
	}
	out := make([]QueryJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, queryJobToAPI(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

// GetJob returns one engine job.
func (h *APIHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetByID(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, httpStatusFromDomainError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, queryJobToAPI(*job))
}

// CancelJob stops a queued or running job and returns its updated record.
// Cancelling a finished job leaves it unchanged.
func (h *APIHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := h.canceler.Cancel(r.Context(), jobID); err != nil {
		status := httpStatusFromDomainError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("cancel job failed", "job_id", jobID, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	job, err := h.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		writeError(w, httpStatusFromDomainError(err), err.Error())
		return
	}
	h.logger.Info("job cancel requested", "job_id", jobID, "state", job.State)
	writeJSON(w, http.StatusOK, queryJobToAPI(*job))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: message})
}
