package model

import "time"

// WebhookEvent is an audit record of a received webhook delivery.
// Written best-effort after processing; the pipeline outcome never
// depends on it.
type WebhookEvent struct {
	ID         string    `json:"id"`
	SvixID     string    `json:"svix_id"`
	EventType  string    `json:"event_type"`
	Outcome    string    `json:"outcome"`
	ClerkID    string    `json:"clerk_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
