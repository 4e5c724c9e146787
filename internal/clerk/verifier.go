// Package clerk implements verification and parsing of Clerk webhook
// deliveries. Clerk signs deliveries through svix: HMAC-SHA256 over
// "{msg_id}.{timestamp}.{body}" with a shared whsec_ secret.
package clerk

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Transport header names used by svix deliveries.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// BypassSentinel is the signature value internal test harnesses send to
// skip verification. Callers must gate it explicitly; the verifier itself
// never honors it.
const BypassSentinel = "skip-verification"

// secretPrefix marks a svix signing secret; the remainder is base64.
const secretPrefix = "whsec_"

// DefaultTolerance is the default accepted clock skew for timestamps.
const DefaultTolerance = 5 * time.Minute

// Verification errors.
var (
	// ErrMissingHeaders is returned when any svix header is absent or empty.
	ErrMissingHeaders = errors.New("missing svix headers")
	// ErrSecretNotConfigured is returned when the signing secret is empty
	// or unusable. This is an operator error, not a caller error.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
	// ErrInvalidTimestamp is returned when the timestamp header is not a
	// unix time or falls outside the tolerance window.
	ErrInvalidTimestamp = errors.New("invalid webhook timestamp")
	// ErrInvalidSignature is returned when no signature candidate matches.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Headers carries the three svix transport headers of a delivery.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFromRequest extracts the svix headers from an HTTP request.
func HeadersFromRequest(r *http.Request) Headers {
	return Headers{
		ID:        r.Header.Get(HeaderID),
		Timestamp: r.Header.Get(HeaderTimestamp),
		Signature: r.Header.Get(HeaderSignature),
	}
}

// Complete reports whether all three headers are present and non-empty.
func (h Headers) Complete() bool {
	return h.ID != "" && h.Timestamp != "" && h.Signature != ""
}

// Verify checks the authenticity of a delivery against the raw body bytes
// exactly as received. Header presence is checked before the secret is
// consulted so a caller error is never misreported as misconfiguration.
func Verify(secret string, h Headers, body []byte, tolerance time.Duration) error {
	if !h.Complete() {
		return ErrMissingHeaders
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return err
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	ts, err := strconv.ParseInt(h.Timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a unix timestamp", ErrInvalidTimestamp, h.Timestamp)
	}
	now := time.Now().Unix()
	if abs(now-ts) > int64(tolerance.Seconds()) {
		return fmt.Errorf("%w: outside tolerance window", ErrInvalidTimestamp)
	}

	expected := computeSignature(key, h.ID, h.Timestamp, body)

	// The header may carry several space-separated "v1,<base64>" candidates
	// (svix sends old and new signatures during secret rotation).
	for _, candidate := range strings.Fields(h.Signature) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Sign produces a "v1,<base64>" signature for the given delivery.
// Used by tests and internal harnesses that replay deliveries.
func Sign(secret, msgID string, ts time.Time, body []byte) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	sig := computeSignature(key, msgID, strconv.FormatInt(ts.Unix(), 10), body)
	return "v1," + base64.StdEncoding.EncodeToString(sig), nil
}

// computeSignature calculates HMAC-SHA256 over "{id}.{timestamp}.{body}".
func computeSignature(key []byte, msgID, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID))
	mac.Write([]byte{'.'})
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}

// decodeSecret extracts the raw HMAC key from a whsec_ secret.
func decodeSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrSecretNotConfigured
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64", ErrSecretNotConfigured)
	}
	return key, nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
