package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// RequestRetention is how long a processed request id shields against
// duplicate submission. Rows past their expiry are treated as absent; they
// are never deleted here.
const RequestRetention = 7 * 24 * time.Hour

type ProcessedRequest struct {
	RequestID string
	Command   string
	OrderID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// GetProcessedRequest enforces logical expiry in the query: an expired row
// behaves exactly like a missing one.
func (r *Repository) GetProcessedRequest(ctx context.Context, requestID string) (*ProcessedRequest, error) {
	query := `SELECT request_id, command, order_id, created_at, expires_at
	          FROM processed_requests WHERE request_id = $1 AND expires_at > NOW()`

	var req ProcessedRequest
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&req.RequestID,
		&req.Command,
		&req.OrderID,
		&req.CreatedAt,
		&req.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query processed request: %w", err)
	}
	return &req, nil
}

func insertProcessedRequest(ctx context.Context, tx *sql.Tx, req *ProcessedRequest) error {
	now := time.Now().UTC()

	query := `INSERT INTO processed_requests (request_id, command, order_id, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.ExecContext(ctx, query, req.RequestID, req.Command, req.OrderID, now, now.Add(RequestRetention))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("insert processed request: %w", err)
	}
	return nil
}
