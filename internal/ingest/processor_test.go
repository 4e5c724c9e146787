package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/talentsync/talentsync/internal/clerk"
	"github.com/talentsync/talentsync/internal/metrics"
	"github.com/talentsync/talentsync/internal/model"
)

type fakeSyncer struct {
	calls   int
	created bool
	err     error

	gotClerkID string
	gotEmail   string
	gotName    string
	gotImage   string
}

func (f *fakeSyncer) SyncUser(ctx context.Context, clerkID, email, name, image string) (*model.User, bool, error) {
	f.calls++
	f.gotClerkID = clerkID
	f.gotEmail = email
	f.gotName = name
	f.gotImage = image
	if f.err != nil {
		return nil, false, f.err
	}
	return &model.User{ID: "01TEST", ClerkID: clerkID, Email: email, Name: name}, f.created, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParseEvent(t *testing.T, body string) *clerk.Event {
	t.Helper()
	evt, err := clerk.ParseEvent([]byte(body))
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	return evt
}

func TestProcessUserCreated(t *testing.T) {
	syncer := &fakeSyncer{created: true}
	p := NewProcessor(syncer, metrics.NewInMemory(), testLogger())

	evt := mustParseEvent(t, `{"type":"user.created","data":{"id":"u1","email_addresses":[{"email_address":"a@b.com"}],"first_name":"A","last_name":"B","image_url":"https://img.example/a.png"}}`)

	result, err := p.Process(context.Background(), evt)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeCreated)
	}
	if result.User == nil || result.User.ID == "" {
		t.Error("Result.User not populated")
	}
	if syncer.gotClerkID != "u1" || syncer.gotEmail != "a@b.com" || syncer.gotName != "A B" || syncer.gotImage != "https://img.example/a.png" {
		t.Errorf("SyncUser called with (%q, %q, %q, %q)", syncer.gotClerkID, syncer.gotEmail, syncer.gotName, syncer.gotImage)
	}
}

func TestProcessUserCreatedDuplicate(t *testing.T) {
	syncer := &fakeSyncer{created: false}
	p := NewProcessor(syncer, nil, testLogger())

	evt := mustParseEvent(t, `{"type":"user.created","data":{"id":"u1","email_addresses":[{"email_address":"a@b.com"}]}}`)

	result, err := p.Process(context.Background(), evt)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Outcome != OutcomeAlreadyExists {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeAlreadyExists)
	}
}

func TestProcessIgnoresOtherEventTypes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"organization created", `{"type":"organization.created","data":{"id":"org_1"}}`},
		{"user updated", `{"type":"user.updated","data":{"id":"u1"}}`},
		{"absent type", `{"data":{"id":"u1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{}
			p := NewProcessor(syncer, nil, testLogger())

			result, err := p.Process(context.Background(), mustParseEvent(t, tt.body))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if result.Outcome != OutcomeIgnored {
				t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeIgnored)
			}
			if syncer.calls != 0 {
				t.Errorf("SyncUser called %d times, want 0", syncer.calls)
			}
		})
	}
}

func TestProcessUserCreatedWithoutEmail(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"type":"user.created","data":{"id":"u1","email_addresses":[]}}`},
		{"absent key", `{"type":"user.created","data":{"id":"u1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{}
			recorder := metrics.NewInMemory()
			p := NewProcessor(syncer, recorder, testLogger())

			result, err := p.Process(context.Background(), mustParseEvent(t, tt.body))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if result.Outcome != OutcomeSkippedNoEmail {
				t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeSkippedNoEmail)
			}
			if result.ClerkID != "u1" {
				t.Errorf("ClerkID = %q, want %q", result.ClerkID, "u1")
			}
			if syncer.calls != 0 {
				t.Errorf("SyncUser called %d times, want 0", syncer.calls)
			}
			if got := recorder.Snapshot().WebhookOutcomes[string(OutcomeSkippedNoEmail)]; got != 1 {
				t.Errorf("skipped_no_email counter = %d, want 1", got)
			}
		})
	}
}

func TestProcessUserCreatedMalformed(t *testing.T) {
	syncer := &fakeSyncer{}
	p := NewProcessor(syncer, nil, testLogger())

	evt := mustParseEvent(t, `{"type":"user.created","data":{"email_addresses":[{"email_address":"a@b.com"}]}}`)

	if _, err := p.Process(context.Background(), evt); !errors.Is(err, clerk.ErrMalformedPayload) {
		t.Errorf("Process() error = %v, want %v", err, clerk.ErrMalformedPayload)
	}
	if syncer.calls != 0 {
		t.Errorf("SyncUser called %d times, want 0", syncer.calls)
	}
}

func TestProcessSyncFailure(t *testing.T) {
	syncErr := errors.New("connection refused")
	syncer := &fakeSyncer{err: syncErr}
	p := NewProcessor(syncer, nil, testLogger())

	evt := mustParseEvent(t, `{"type":"user.created","data":{"id":"u1","email_addresses":[{"email_address":"a@b.com"}]}}`)

	result, err := p.Process(context.Background(), evt)
	if !errors.Is(err, syncErr) {
		t.Errorf("Process() error = %v, want wrapped %v", err, syncErr)
	}
	if result.ClerkID != "u1" {
		t.Errorf("ClerkID = %q, want %q for log correlation", result.ClerkID, "u1")
	}
}
