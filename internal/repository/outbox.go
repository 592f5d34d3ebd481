package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
)

const (
	EventStatusPending   = "PENDING"
	EventStatusProcessed = "PROCESSED"
	EventStatusFailed    = "FAILED"
)

// MaxEventRetries is the dispatch retry ceiling. A FAILED record below the
// ceiling stays eligible for redelivery; at the ceiling it is poison and
// stays visible for operators.
const MaxEventRetries = 5

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	Status      string
	RetryCount  int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// insertEvents appends staged domain events to the outbox inside the caller's
// transaction; it is never called on its own.
func insertEvents(ctx context.Context, tx *sql.Tx, events []domain.Event) error {
	query := `INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", ev.EventType(), err)
		}
		if _, err := tx.ExecContext(ctx, query, ev.Aggregate(), ev.EventType(), payload); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

// GetUnprocessedEvents returns dispatchable records oldest first: PENDING
// ones plus FAILED ones still below the retry ceiling.
func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, status, retry_count, COALESCE(last_error, ''), created_at, processed_at
	          FROM outbox_events
	          WHERE status IN ($1, $2) AND retry_count < $3
	          ORDER BY id
	          LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, EventStatusPending, EventStatusFailed, MaxEventRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.AggregateID,
			&ev.EventType,
			&ev.Payload,
			&ev.Status,
			&ev.RetryCount,
			&ev.LastError,
			&ev.CreatedAt,
			&ev.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event row: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventProcessed(ctx context.Context, id int64) error {
	query := `UPDATE outbox_events SET status = $2, processed_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, EventStatusProcessed); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (r *Repository) MarkEventFailed(ctx context.Context, id int64, reason string) error {
	query := `UPDATE outbox_events SET status = $2, retry_count = retry_count + 1, last_error = $3 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, EventStatusFailed, reason); err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}
