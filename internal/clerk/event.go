package clerk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventTypeUserCreated is the only event type the pipeline acts on.
// Other types are acknowledged and ignored.
const EventTypeUserCreated = "user.created"

// ErrMalformedPayload is returned when a payload cannot be parsed or is
// structurally missing required fields for its declared type.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is the envelope of a Clerk webhook delivery. Request-scoped;
// nothing here is persisted.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes a raw delivery body into an Event.
func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &evt, nil
}

// EmailAddress is one entry of a user's email address list.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// UserCreation holds the fields extracted from a user.created event.
type UserCreation struct {
	ID             string
	EmailAddresses []EmailAddress
	FirstName      string
	LastName       string
	ImageURL       string
}

// UserCreation destructures the event data for a user.created event.
// Only the id field must be present; an absent or empty email_addresses
// list is valid here and handled downstream as a skipped sync.
func (e *Event) UserCreation() (*UserCreation, error) {
	var raw struct {
		ID             string         `json:"id"`
		EmailAddresses []EmailAddress `json:"email_addresses"`
		FirstName      string         `json:"first_name"`
		LastName       string         `json:"last_name"`
		ImageURL       string         `json:"image_url"`
	}
	if err := json.Unmarshal(e.Data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrMalformedPayload)
	}
	return &UserCreation{
		ID:             raw.ID,
		EmailAddresses: raw.EmailAddresses,
		FirstName:      raw.FirstName,
		LastName:       raw.LastName,
		ImageURL:       raw.ImageURL,
	}, nil
}

// HasEmail reports whether at least one email address is present.
func (u *UserCreation) HasEmail() bool {
	return len(u.EmailAddresses) > 0
}

// PrimaryEmail returns the first email address, matching the provider's
// ordering, or an empty string when none exist.
func (u *UserCreation) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0].EmailAddress
}

// DisplayName joins first and last name with surrounding whitespace
// trimmed. Either part may be empty; an empty result is permitted.
func (u *UserCreation) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
