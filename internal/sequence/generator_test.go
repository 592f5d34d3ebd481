package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

// memoryStore mimics the optimistic-concurrency semantics of the postgres
// repository: updates succeed only against the current version.
type memoryStore struct {
	mu       sync.Mutex
	counters map[string]*repository.BranchSequence

	// forceConflicts makes the next N update attempts fail regardless of version.
	forceConflicts int
	getCalls       int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{counters: make(map[string]*repository.BranchSequence)}
}

func (s *memoryStore) GetSequence(_ context.Context, branchID string) (*repository.BranchSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	seq, ok := s.counters[branchID]
	if !ok {
		return nil, repository.ErrSequenceNotFound
	}
	copied := *seq
	return &copied, nil
}

func (s *memoryStore) InsertSequence(_ context.Context, branchID string, number int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[branchID]; ok {
		return repository.ErrSequenceConflict
	}
	s.counters[branchID] = &repository.BranchSequence{BranchID: branchID, LastNumber: number, Version: 1}
	return nil
}

func (s *memoryStore) UpdateSequence(_ context.Context, branchID string, number, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceConflicts > 0 {
		s.forceConflicts--
		return repository.ErrSequenceConflict
	}
	seq, ok := s.counters[branchID]
	if !ok || seq.Version != expectedVersion {
		return repository.ErrSequenceConflict
	}
	seq.LastNumber = number
	seq.Version++
	return nil
}

func TestNext_FirstOrderForBranch(t *testing.T) {
	gen := NewGenerator(newMemoryStore())

	n, err := gen.Next(context.Background(), "branch-1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNext_Increments(t *testing.T) {
	gen := NewGenerator(newMemoryStore())
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		n, err := gen.Next(ctx, "branch-1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestNext_IndependentPerBranch(t *testing.T) {
	gen := NewGenerator(newMemoryStore())
	ctx := context.Background()

	a1, err := gen.Next(ctx, "branch-a")
	require.NoError(t, err)
	b1, err := gen.Next(ctx, "branch-b")
	require.NoError(t, err)

	assert.Equal(t, int64(1), a1)
	assert.Equal(t, int64(1), b1)
}

func TestNext_RetriesOnConflict(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.InsertSequence(context.Background(), "branch-1", 10))
	store.forceConflicts = 2

	gen := NewGenerator(store)
	n, err := gen.Next(context.Background(), "branch-1")

	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
}

func TestNext_SustainedContentionFails(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.InsertSequence(context.Background(), "branch-9", 1))
	store.forceConflicts = 100

	gen := NewGenerator(store)
	_, err := gen.Next(context.Background(), "branch-9")

	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrSequenceConflict)
	assert.Contains(t, err.Error(), "branch-9")
	assert.Contains(t, err.Error(), "5 attempts")
}

func TestNext_ConcurrentCallsNeverShareANumber(t *testing.T) {
	store := newMemoryStore()
	gen := NewGenerator(store)
	ctx := context.Background()

	const workers = 8

	var wg sync.WaitGroup
	results := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := gen.Next(ctx, "branch-1")
			if err == nil {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for n := range results {
		assert.False(t, seen[n], "number %d assigned twice", n)
		seen[n] = true
	}
	assert.NotEmpty(t, seen)
}
