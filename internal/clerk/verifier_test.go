package clerk

import (
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"
)

// testSecret is a valid whsec_ secret for tests.
var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

func signedHeaders(t *testing.T, secret, msgID string, ts time.Time, body []byte) Headers {
	t.Helper()
	sig, err := Sign(secret, msgID, ts, body)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return Headers{
		ID:        msgID,
		Timestamp: strconv.FormatInt(ts.Unix(), 10),
		Signature: sig,
	}
}

func TestVerify(t *testing.T) {
	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	now := time.Now()
	valid := signedHeaders(t, testSecret, "msg_1", now, body)

	tests := []struct {
		name    string
		secret  string
		headers Headers
		body    []byte
		wantErr error
	}{
		{
			name:    "valid signature",
			secret:  testSecret,
			headers: valid,
			body:    body,
			wantErr: nil,
		},
		{
			name:    "missing id header",
			secret:  testSecret,
			headers: Headers{Timestamp: valid.Timestamp, Signature: valid.Signature},
			body:    body,
			wantErr: ErrMissingHeaders,
		},
		{
			name:    "missing timestamp header",
			secret:  testSecret,
			headers: Headers{ID: valid.ID, Signature: valid.Signature},
			body:    body,
			wantErr: ErrMissingHeaders,
		},
		{
			name:    "missing signature header",
			secret:  testSecret,
			headers: Headers{ID: valid.ID, Timestamp: valid.Timestamp},
			body:    body,
			wantErr: ErrMissingHeaders,
		},
		{
			name:    "secret not configured",
			secret:  "",
			headers: valid,
			body:    body,
			wantErr: ErrSecretNotConfigured,
		},
		{
			name:    "secret not base64",
			secret:  "whsec_%%%not-base64%%%",
			headers: valid,
			body:    body,
			wantErr: ErrSecretNotConfigured,
		},
		{
			name:    "tampered body",
			secret:  testSecret,
			headers: valid,
			body:    []byte(`{"type":"user.created","data":{"id":"user_2"}}`),
			wantErr: ErrInvalidSignature,
		},
		{
			name:   "tampered signature",
			secret: testSecret,
			headers: Headers{
				ID:        valid.ID,
				Timestamp: valid.Timestamp,
				Signature: "v1," + base64.StdEncoding.EncodeToString([]byte("forged signature bytes here!")),
			},
			body:    body,
			wantErr: ErrInvalidSignature,
		},
		{
			name:   "wrong secret",
			secret: "whsec_" + base64.StdEncoding.EncodeToString([]byte("some-other-key")),
			headers: valid,
			body:    body,
			wantErr: ErrInvalidSignature,
		},
		{
			name:   "garbage timestamp",
			secret: testSecret,
			headers: Headers{
				ID:        valid.ID,
				Timestamp: "not-a-timestamp",
				Signature: valid.Signature,
			},
			body:    body,
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "timestamp too old",
			secret:  testSecret,
			headers: signedHeaders(t, testSecret, "msg_1", now.Add(-15*time.Minute), body),
			body:    body,
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "timestamp too far in the future",
			secret:  testSecret,
			headers: signedHeaders(t, testSecret, "msg_1", now.Add(15*time.Minute), body),
			body:    body,
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.secret, tt.headers, tt.body, 5*time.Minute)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyMultipleSignatures(t *testing.T) {
	body := []byte(`{"type":"user.created"}`)
	now := time.Now()

	h := signedHeaders(t, testSecret, "msg_rot", now, body)

	// Secret rotation: an old signature precedes the valid one.
	h.Signature = "v1," + base64.StdEncoding.EncodeToString([]byte("stale rotation signature")) + " " + h.Signature
	if err := Verify(testSecret, h, body, 5*time.Minute); err != nil {
		t.Errorf("Verify() with rotated signatures error = %v, want nil", err)
	}

	// Unknown version entries are skipped, not matched.
	h.Signature = "v2,AAAA"
	if err := Verify(testSecret, h, body, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify() with unknown version error = %v, want %v", err, ErrInvalidSignature)
	}
}

func TestVerifyUsesVerbatimBody(t *testing.T) {
	// Whitespace-equivalent JSON must not verify: the signature covers the
	// exact transmitted bytes, not the parsed value.
	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	reserialized := []byte(`{"type": "user.created", "data": {"id": "user_1"}}`)

	h := signedHeaders(t, testSecret, "msg_ws", time.Now(), body)
	if err := Verify(testSecret, h, reserialized, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify() with reserialized body error = %v, want %v", err, ErrInvalidSignature)
	}
}

func TestSignDeterministic(t *testing.T) {
	body := []byte(`{}`)
	ts := time.Unix(1736600000, 0)

	sig1, err := Sign(testSecret, "msg_1", ts, body)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	sig2, _ := Sign(testSecret, "msg_1", ts, body)
	if sig1 != sig2 {
		t.Error("signature is not deterministic")
	}

	sig3, _ := Sign(testSecret, "msg_2", ts, body)
	if sig1 == sig3 {
		t.Error("different message id should produce different signature")
	}
}
