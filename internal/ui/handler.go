// Package ui renders the orders dashboard as server-side HTML.
package ui

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	gomponents "maragu.dev/gomponents"

	"orders-lake/internal/domain"
)

// ReportService builds a fresh report per call.
type ReportService interface {
	Build(ctx context.Context) domain.Report
}

// Handler serves the dashboard pages.
type Handler struct {
	Reports ReportService
	Logger  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(reports ReportService, logger *slog.Logger) *Handler {
	return &Handler{Reports: reports, Logger: logger.With("component", "ui")}
}

// MountRoutes registers the dashboard routes on r.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Dashboard)
}

// Dashboard runs every configured query and renders the results. It always
// answers 200: failed sections render their error inline.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report := h.Reports.Build(r.Context())
	if n := report.Failed(); n > 0 {
		h.Logger.Warn("dashboard rendered with failed sections", "failed", n, "sections", len(report.Sections))
	}
	renderHTML(w, http.StatusOK, dashboardPage(report))
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
