package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/talentsync/talentsync/internal/clerk"
	"github.com/talentsync/talentsync/internal/handler/dto"
	"github.com/talentsync/talentsync/internal/ingest"
	"github.com/talentsync/talentsync/internal/metrics"
	"github.com/talentsync/talentsync/internal/model"
)

// EventProcessor dispatches a verified event to its side effects.
type EventProcessor interface {
	Process(ctx context.Context, evt *clerk.Event) (ingest.Result, error)
}

// EventAuditor records received deliveries for the debug views.
type EventAuditor interface {
	RecordWebhookEvent(ctx context.Context, evt *model.WebhookEvent) error
}

// ClerkWebhookConfig holds configuration for the webhook endpoint.
type ClerkWebhookConfig struct {
	// Secret is the svix signing secret. May be empty; each delivery is
	// then rejected as a server misconfiguration.
	Secret string
	// Tolerance is the accepted timestamp skew.
	Tolerance time.Duration
	// AllowBypass honors the skip-verification sentinel. Must only be
	// enabled for non-production test deployments.
	AllowBypass bool
	// MaxBodySize caps the request body in bytes.
	MaxBodySize int64
}

// ClerkWebhookHandler receives Clerk webhook deliveries.
// It is the single boundary adapter; every mount of the webhook route
// goes through the same Receive method, so the routes cannot drift.
type ClerkWebhookHandler struct {
	processor EventProcessor
	auditor   EventAuditor
	logger    *slog.Logger
	metrics   metrics.Recorder
	cfg       ClerkWebhookConfig
}

// NewClerkWebhookHandler creates a new ClerkWebhookHandler.
func NewClerkWebhookHandler(processor EventProcessor, auditor EventAuditor, recorder metrics.Recorder, logger *slog.Logger, cfg ClerkWebhookConfig) *ClerkWebhookHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	return &ClerkWebhookHandler{
		processor: processor,
		auditor:   auditor,
		logger:    logger.With("handler", "clerk_webhook"),
		metrics:   recorder,
		cfg:       cfg,
	}
}

// Liveness answers GET on the webhook path with a static payload.
// No side effects; used by operators to confirm the route is wired.
func (h *ClerkWebhookHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Clerk webhook endpoint is operational",
	})
}

// Receive handles POST deliveries: verify, parse, dispatch, respond.
// At-least-once delivery means everything here must tolerate replays;
// the idempotent sync downstream makes duplicate deliveries harmless.
func (h *ClerkWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.metrics.IncWebhookReceived()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("failed to read webhook body",
			"error", err,
			"request_id", getRequestID(ctx),
		)
		h.metrics.IncWebhookRejected(metrics.RejectMalformedPayload)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Unreadable request body",
			Code:  "INVALID_BODY",
		})
		return
	}

	headers := clerk.HeadersFromRequest(r)

	if headers.Signature == clerk.BypassSentinel && h.cfg.AllowBypass {
		// Test-harness path. Loudly logged; unreachable in production.
		h.logger.Warn("signature verification bypassed",
			"svix_id", headers.ID,
			"request_id", getRequestID(ctx),
		)
	} else if err := clerk.Verify(h.cfg.Secret, headers, body, h.cfg.Tolerance); err != nil {
		h.rejectUnverified(ctx, w, headers, err)
		return
	}

	evt, err := clerk.ParseEvent(body)
	if err != nil {
		h.logger.Warn("malformed webhook payload",
			"svix_id", headers.ID,
			"error", err,
			"request_id", getRequestID(ctx),
		)
		h.metrics.IncWebhookRejected(metrics.RejectMalformedPayload)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Error parsing webhook payload",
			Code:  "MALFORMED_PAYLOAD",
		})
		return
	}

	result, err := h.processor.Process(ctx, evt)
	if err != nil {
		if errors.Is(err, clerk.ErrMalformedPayload) {
			h.logger.Warn("malformed webhook payload",
				"svix_id", headers.ID,
				"event_type", evt.Type,
				"error", err,
				"request_id", getRequestID(ctx),
			)
			h.metrics.IncWebhookRejected(metrics.RejectMalformedPayload)
			h.audit(ctx, headers.ID, evt.Type, "rejected_malformed", result.ClerkID)
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error: "Error parsing webhook payload",
				Code:  "MALFORMED_PAYLOAD",
			})
			return
		}

		// Storage failure. Safe for the sender to retry: sync is idempotent.
		h.logger.Error("webhook processing failed",
			"svix_id", headers.ID,
			"event_type", evt.Type,
			"clerk_id", result.ClerkID,
			"error", err,
			"request_id", getRequestID(ctx),
		)
		h.audit(ctx, headers.ID, evt.Type, "sync_failed", result.ClerkID)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "Error syncing user",
			Code:  "SYNC_FAILED",
		})
		return
	}

	h.audit(ctx, headers.ID, evt.Type, string(result.Outcome), result.ClerkID)

	ack := dto.WebhookAck{
		Status:  "processed",
		Outcome: string(result.Outcome),
	}
	if result.User != nil {
		ack.UserID = result.User.ID
	}
	writeJSON(w, http.StatusOK, ack)
}

// rejectUnverified maps verification failures to transport responses.
// Misconfiguration is the operator's fault and logged at error level;
// everything else is the caller's.
func (h *ClerkWebhookHandler) rejectUnverified(ctx context.Context, w http.ResponseWriter, headers clerk.Headers, err error) {
	switch {
	case errors.Is(err, clerk.ErrMissingHeaders):
		h.logger.Warn("webhook delivery missing svix headers",
			"request_id", getRequestID(ctx),
		)
		h.metrics.IncWebhookRejected(metrics.RejectMissingHeaders)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Missing svix headers",
			Code:  "MISSING_HEADERS",
		})

	case errors.Is(err, clerk.ErrSecretNotConfigured):
		h.logger.Error("webhook secret not configured",
			"svix_id", headers.ID,
			"request_id", getRequestID(ctx),
		)
		h.metrics.IncWebhookRejected(metrics.RejectMisconfigured)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "Server misconfigured",
			Code:  "SERVER_MISCONFIGURED",
		})

	default:
		// Never log the signature value itself.
		h.logger.Warn("webhook signature verification failed",
			"svix_id", headers.ID,
			"error", err,
			"request_id", getRequestID(ctx),
		)
		h.metrics.IncWebhookRejected(metrics.RejectInvalidSignature)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Error verifying webhook",
			Code:  "INVALID_SIGNATURE",
		})
	}
}

// audit records the delivery best-effort; failures never affect the response.
func (h *ClerkWebhookHandler) audit(ctx context.Context, svixID, eventType, outcome, clerkID string) {
	if h.auditor == nil {
		return
	}

	record := &model.WebhookEvent{
		ID:         ulid.Make().String(),
		SvixID:     svixID,
		EventType:  eventType,
		Outcome:    outcome,
		ClerkID:    clerkID,
		ReceivedAt: time.Now().UTC(),
	}
	if err := h.auditor.RecordWebhookEvent(ctx, record); err != nil {
		h.logger.Warn("failed to record webhook event",
			"svix_id", svixID,
			"error", err,
		)
	}
}
