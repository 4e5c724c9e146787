package repository

import (
	"context"
	"fmt"

	"github.com/talentsync/talentsync/internal/model"
)

// RecordWebhookEvent inserts an audit record for a received delivery.
func (r *Repository) RecordWebhookEvent(ctx context.Context, evt *model.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (id, svix_id, event_type, outcome, clerk_id, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		evt.ID,
		evt.SvixID,
		evt.EventType,
		evt.Outcome,
		evt.ClerkID,
		evt.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	return nil
}

// ListWebhookEvents returns the most recent audit records, newest first.
func (r *Repository) ListWebhookEvents(ctx context.Context, limit int) ([]*model.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, svix_id, event_type, outcome, clerk_id, received_at
		FROM webhook_events
		ORDER BY received_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer rows.Close()

	var events []*model.WebhookEvent
	for rows.Next() {
		var evt model.WebhookEvent
		if err := rows.Scan(
			&evt.ID,
			&evt.SvixID,
			&evt.EventType,
			&evt.Outcome,
			&evt.ClerkID,
			&evt.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan webhook event: %w", err)
		}
		events = append(events, &evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhook events: %w", err)
	}

	return events, nil
}
