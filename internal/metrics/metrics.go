// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Rejection reasons recorded for refused webhook deliveries.
const (
	RejectMissingHeaders   = "missing_headers"
	RejectInvalidSignature = "invalid_signature"
	RejectMalformedPayload = "malformed_payload"
	RejectMisconfigured    = "misconfigured"
	RejectRateLimited      = "rate_limited"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Webhook ingestion metrics
	IncWebhookReceived()
	IncWebhookRejected(reason string)
	IncWebhookOutcome(outcome string) // ingest outcome name
	ObserveSyncDuration(duration time.Duration)

	// User store metrics
	IncUserDeleted()
	IncUserCacheHit()
	IncUserCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
