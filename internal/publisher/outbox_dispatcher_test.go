package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

// memoryStore is an in-memory stand-in for the outbox tables.
type memoryStore struct {
	mu       sync.Mutex
	pending  []*repository.OutboxEvent
	done     []int64
	failed   map[int64]string
	fetchErr error
}

func newMemoryStore(events ...*repository.OutboxEvent) *memoryStore {
	return &memoryStore{pending: events, failed: make(map[int64]string)}
}

func (s *memoryStore) GetUnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *memoryStore) MarkEventProcessed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, id)
	return nil
}

func (s *memoryStore) MarkEventFailed(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = reason
	return nil
}

// recordingNotifier captures publishes and can be told to fail per event type.
type recordingNotifier struct {
	mu        sync.Mutex
	published []domain.Event
	failTypes map[string]error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failTypes: make(map[string]error)}
}

func (n *recordingNotifier) Publish(_ context.Context, event domain.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failTypes[event.EventType()]; ok {
		return err
	}
	n.published = append(n.published, event)
	return nil
}

func mustPayload(t *testing.T, event domain.Event) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func pendingEvent(t *testing.T, id int64, event domain.Event) *repository.OutboxEvent {
	t.Helper()
	return &repository.OutboxEvent{
		ID:          id,
		AggregateID: event.Aggregate(),
		EventType:   event.EventType(),
		Payload:     mustPayload(t, event),
		Status:      repository.EventStatusPending,
	}
}

func TestCycle_PublishesPendingEvents(t *testing.T) {
	created := domain.OrderCreated{OrderID: "order-1", Number: 7, CustomerID: "customer-1", BranchID: "branch-1", Total: 930.0, OccurredAt: time.Now().UTC()}
	cancelled := domain.OrderCancelled{OrderID: "order-2", OccurredAt: time.Now().UTC()}
	store := newMemoryStore(
		pendingEvent(t, 1, created),
		pendingEvent(t, 2, cancelled),
	)
	notifier := newRecordingNotifier()

	d := NewDispatcher(store, NewRegistry(), notifier, nil, Config{})
	require.NoError(t, d.cycle(context.Background()))

	assert.Equal(t, []int64{1, 2}, store.done)
	assert.Empty(t, store.failed)
	require.Len(t, notifier.published, 2)
	got, ok := notifier.published[0].(domain.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, created.OrderID, got.OrderID)
	assert.Equal(t, created.Number, got.Number)
}

func TestCycle_MalformedRecordDoesNotBlockBatch(t *testing.T) {
	good := domain.OrderLinesChanged{OrderID: "order-1", ProductID: "product-a", Quantity: 5, Total: 450.0, OccurredAt: time.Now().UTC()}
	store := newMemoryStore(
		&repository.OutboxEvent{ID: 1, EventType: domain.EventOrderCreated, Payload: json.RawMessage(`{not json`), Status: repository.EventStatusPending},
		pendingEvent(t, 2, good),
	)
	notifier := newRecordingNotifier()

	d := NewDispatcher(store, NewRegistry(), notifier, nil, Config{})
	require.NoError(t, d.cycle(context.Background()))

	assert.Equal(t, []int64{2}, store.done, "healthy record still processed")
	assert.Contains(t, store.failed, int64(1))
	require.Len(t, notifier.published, 1)
}

func TestCycle_UnknownEventTypeMarkedFailed(t *testing.T) {
	store := newMemoryStore(
		&repository.OutboxEvent{ID: 9, EventType: "OrderShipped", Payload: json.RawMessage(`{}`), Status: repository.EventStatusPending},
	)
	notifier := newRecordingNotifier()

	d := NewDispatcher(store, NewRegistry(), notifier, nil, Config{})
	require.NoError(t, d.cycle(context.Background()))

	assert.Empty(t, store.done)
	assert.Contains(t, store.failed[9], "unknown event type")
}

func TestCycle_PublishFailureIncrementsRetry(t *testing.T) {
	created := domain.OrderCreated{OrderID: "order-1", Number: 1, OccurredAt: time.Now().UTC()}
	store := newMemoryStore(pendingEvent(t, 3, created))
	notifier := newRecordingNotifier()
	notifier.failTypes[domain.EventOrderCreated] = errors.New("broker unreachable")

	d := NewDispatcher(store, NewRegistry(), notifier, nil, Config{})
	require.NoError(t, d.cycle(context.Background()))

	assert.Empty(t, store.done)
	assert.Equal(t, "broker unreachable", store.failed[3])
}

func TestCycle_FetchErrorSurfaces(t *testing.T) {
	store := newMemoryStore()
	store.fetchErr = errors.New("connection reset")

	d := NewDispatcher(store, NewRegistry(), newRecordingNotifier(), nil, Config{})
	err := d.cycle(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch pending events")
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := newMemoryStore()
	d := NewDispatcher(store, NewRegistry(), newRecordingNotifier(), nil, Config{PollTick: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancellation")
	}
}

func TestRegistry_DecodeRoundTrip(t *testing.T) {
	reg := NewRegistry()
	lineCancelled := domain.OrderLineCancelled{OrderID: "order-1", ProductID: "product-b", OccurredAt: time.Now().UTC()}

	ev, err := reg.Decode(domain.EventOrderLineCancelled, mustPayload(t, lineCancelled))

	require.NoError(t, err)
	got, ok := ev.(domain.OrderLineCancelled)
	require.True(t, ok)
	assert.Equal(t, "product-b", got.ProductID)
	assert.Equal(t, domain.EventOrderLineCancelled, got.EventType())
}
