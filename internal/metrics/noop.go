package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncWebhookReceived is a no-op.
func (n *NoopRecorder) IncWebhookReceived() {}

// IncWebhookRejected is a no-op.
func (n *NoopRecorder) IncWebhookRejected(reason string) {}

// IncWebhookOutcome is a no-op.
func (n *NoopRecorder) IncWebhookOutcome(outcome string) {}

// ObserveSyncDuration is a no-op.
func (n *NoopRecorder) ObserveSyncDuration(duration time.Duration) {}

// IncUserDeleted is a no-op.
func (n *NoopRecorder) IncUserDeleted() {}

// IncUserCacheHit is a no-op.
func (n *NoopRecorder) IncUserCacheHit() {}

// IncUserCacheMiss is a no-op.
func (n *NoopRecorder) IncUserCacheMiss() {}
