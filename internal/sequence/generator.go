// Package sequence produces unique, per-branch monotonically increasing
// order numbers under optimistic concurrency.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lindembergz/123Vendas-sub000/internal/repository"
	"github.com/lindembergz/123Vendas-sub000/internal/retry"
)

const (
	maxAttempts = 5
	baseDelay   = 25 * time.Millisecond
)

type Store interface {
	GetSequence(ctx context.Context, branchID string) (*repository.BranchSequence, error)
	InsertSequence(ctx context.Context, branchID string, number int64) error
	UpdateSequence(ctx context.Context, branchID string, number, expectedVersion int64) error
}

type Generator struct {
	store Store
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// Next reserves the next order number for a branch. The counter is created
// lazily on the branch's first order. Version conflicts are retried with
// exponential backoff; sustained contention fails the request with an
// operational error naming the branch and attempt count.
func (g *Generator) Next(ctx context.Context, branchID string) (int64, error) {
	var next int64
	err := retry.Do(ctx, maxAttempts, retry.Exponential(baseDelay), isConflict, func() error {
		seq, err := g.store.GetSequence(ctx, branchID)
		if errors.Is(err, repository.ErrSequenceNotFound) {
			next = 1
			return g.store.InsertSequence(ctx, branchID, next)
		}
		if err != nil {
			return err
		}
		next = seq.LastNumber + 1
		return g.store.UpdateSequence(ctx, branchID, next, seq.Version)
	})
	if err != nil {
		return 0, fmt.Errorf("sequence for branch %s: %w", branchID, err)
	}
	return next, nil
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrSequenceConflict)
}
