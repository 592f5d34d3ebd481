package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// BranchSequence is the optimistic-concurrency counter behind per-branch
// order numbers. The version changes on every increment.
type BranchSequence struct {
	BranchID   string
	LastNumber int64
	Version    int64
}

func (r *Repository) GetSequence(ctx context.Context, branchID string) (*BranchSequence, error) {
	query := `SELECT branch_id, last_number, version FROM branch_sequences WHERE branch_id = $1`

	var seq BranchSequence
	err := r.db.QueryRowContext(ctx, query, branchID).Scan(&seq.BranchID, &seq.LastNumber, &seq.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSequenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query branch sequence: %w", err)
	}
	return &seq, nil
}

// InsertSequence creates the counter lazily on a branch's first order. A
// concurrent creator surfaces as ErrSequenceConflict and is retried by the
// generator.
func (r *Repository) InsertSequence(ctx context.Context, branchID string, number int64) error {
	query := `INSERT INTO branch_sequences (branch_id, last_number, version) VALUES ($1, $2, 1)`

	_, err := r.db.ExecContext(ctx, query, branchID, number)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrSequenceConflict
		}
		return fmt.Errorf("insert branch sequence: %w", err)
	}
	return nil
}

// UpdateSequence advances the counter only when the version still matches;
// zero affected rows means another writer got there first.
func (r *Repository) UpdateSequence(ctx context.Context, branchID string, number, expectedVersion int64) error {
	query := `UPDATE branch_sequences SET last_number = $2, version = version + 1
	          WHERE branch_id = $1 AND version = $3`

	res, err := r.db.ExecContext(ctx, query, branchID, number, expectedVersion)
	if err != nil {
		return fmt.Errorf("update branch sequence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update branch sequence rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSequenceConflict
	}
	return nil
}
