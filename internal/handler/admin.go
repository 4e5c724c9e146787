package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talentsync/talentsync/internal/metrics"
	"github.com/talentsync/talentsync/internal/model"
)

// WebhookEventLister defines the interface for reading the delivery audit log.
type WebhookEventLister interface {
	ListWebhookEvents(ctx context.Context, limit int) ([]*model.WebhookEvent, error)
}

// AdminHandler provides admin-only endpoints for debugging and operations.
type AdminHandler struct {
	events  WebhookEventLister
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(events WebhookEventLister, recorder metrics.Recorder, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		events:  events,
		metrics: recorder,
		logger:  logger,
	}
}

// WebhookEventListResponse represents the response for audit log listing.
type WebhookEventListResponse struct {
	Events []*model.WebhookEvent `json:"events"`
	Total  int                   `json:"total"`
}

// ListWebhookEvents handles GET /api/v1/webhook-events?limit={n}
// Returns recent deliveries for the debug views, newest first.
func (h *AdminHandler) ListWebhookEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	events, err := h.events.ListWebhookEvents(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list webhook events",
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list webhook events")
		return
	}

	if events == nil {
		events = []*model.WebhookEvent{}
	}

	writeJSON(w, http.StatusOK, WebhookEventListResponse{
		Events: events,
		Total:  len(events),
	})
}

// StatsResponse represents operational statistics.
type StatsResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Metrics   *metrics.Snapshot `json:"metrics,omitempty"`
}

// Stats handles GET /api/v1/admin/stats
// Includes a metrics snapshot when the configured recorder supports one.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{
		Timestamp: time.Now().UTC(),
		Service:   "talentsync",
	}

	if snapshotter, ok := h.metrics.(metrics.Snapshotter); ok {
		snapshot := snapshotter.Snapshot()
		response.Metrics = &snapshot
	}

	writeJSON(w, http.StatusOK, response)
}
