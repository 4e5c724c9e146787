// Package dto defines request/response shapes shared by HTTP handlers.
package dto

// ErrorResponse is the JSON body for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SyncUserRequest is the body for the manual resync endpoint.
type SyncUserRequest struct {
	ClerkID string `json:"clerk_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
}

// WebhookAck is the JSON body acknowledging a webhook delivery.
type WebhookAck struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}
