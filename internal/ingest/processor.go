// Package ingest routes verified webhook events to their side effects.
// It is the single core both webhook mounts delegate to.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentsync/talentsync/internal/clerk"
	"github.com/talentsync/talentsync/internal/metrics"
	"github.com/talentsync/talentsync/internal/model"
)

// Outcome classifies what a verified delivery resulted in.
// Every outcome is a success at the transport level.
type Outcome string

const (
	// OutcomeCreated means a new user record was written.
	OutcomeCreated Outcome = "created"
	// OutcomeAlreadyExists means the record already existed; no mutation.
	OutcomeAlreadyExists Outcome = "already_exists"
	// OutcomeSkippedNoEmail means a user.created event carried no email
	// addresses; accepted but nothing was written.
	OutcomeSkippedNoEmail Outcome = "skipped_no_email"
	// OutcomeIgnored means the event type is not handled.
	OutcomeIgnored Outcome = "ignored"
)

// UserSyncer performs the idempotent user sync.
type UserSyncer interface {
	SyncUser(ctx context.Context, clerkID, email, name, image string) (*model.User, bool, error)
}

// Result carries the outcome of processing one delivery.
type Result struct {
	Outcome Outcome
	User    *model.User // set for Created and AlreadyExists
	ClerkID string      // set when the payload named an external identity
}

// Processor dispatches verified events by type.
type Processor struct {
	users   UserSyncer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(users UserSyncer, recorder metrics.Recorder, logger *slog.Logger) *Processor {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Processor{
		users:   users,
		metrics: recorder,
		logger:  logger,
	}
}

// Process routes one verified event. Unknown event types (including an
// absent type) are acknowledged without side effects; extending the
// pipeline means adding a case here, not changing the dispatch mechanism.
//
// Errors are either clerk.ErrMalformedPayload (caller error) or a wrapped
// storage failure; callers map them to transport responses.
func (p *Processor) Process(ctx context.Context, evt *clerk.Event) (Result, error) {
	switch evt.Type {
	case clerk.EventTypeUserCreated:
		return p.processUserCreated(ctx, evt)
	default:
		p.logger.Debug("ignoring event type", "event_type", evt.Type)
		p.metrics.IncWebhookOutcome(string(OutcomeIgnored))
		return Result{Outcome: OutcomeIgnored}, nil
	}
}

func (p *Processor) processUserCreated(ctx context.Context, evt *clerk.Event) (Result, error) {
	uc, err := evt.UserCreation()
	if err != nil {
		return Result{}, err
	}

	if !uc.HasEmail() {
		p.logger.Warn("user.created event without email addresses", "clerk_id", uc.ID)
		p.metrics.IncWebhookOutcome(string(OutcomeSkippedNoEmail))
		return Result{Outcome: OutcomeSkippedNoEmail, ClerkID: uc.ID}, nil
	}

	user, created, err := p.users.SyncUser(ctx, uc.ID, uc.PrimaryEmail(), uc.DisplayName(), uc.ImageURL)
	if err != nil {
		return Result{ClerkID: uc.ID}, fmt.Errorf("sync user %s: %w", uc.ID, err)
	}

	outcome := OutcomeAlreadyExists
	if created {
		outcome = OutcomeCreated
		p.logger.Info("user synced", "clerk_id", uc.ID, "user_id", user.ID)
	} else {
		p.logger.Info("user already synced", "clerk_id", uc.ID, "user_id", user.ID)
	}

	p.metrics.IncWebhookOutcome(string(outcome))
	return Result{Outcome: outcome, User: user, ClerkID: uc.ID}, nil
}
