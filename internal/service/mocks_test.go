package service

import (
	"context"
	"errors"

	"github.com/lindembergz/123Vendas-sub000/internal/customer"
	"github.com/lindembergz/123Vendas-sub000/internal/domain"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

// MockRepository implements repository.OrderRepository for testing.
type MockRepository struct {
	ProcessedRequests map[string]*repository.ProcessedRequest
	Orders            map[string]*domain.Order

	// Captured writes
	CreatedOrder  *domain.Order
	UpdatedOrder  *domain.Order
	SavedEvents   []domain.Event
	SavedRequest  *repository.ProcessedRequest
	CreateCalls   int
	UpdateCalls   int
	GetOrderCalls int

	GetRequestErr error
	CreateErrs    []error // consumed one per CreateOrder call
	UpdateErr     error
	GetOrderErr   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		ProcessedRequests: make(map[string]*repository.ProcessedRequest),
		Orders:            make(map[string]*domain.Order),
	}
}

func (m *MockRepository) CreateOrder(_ context.Context, order *domain.Order, events []domain.Event, req *repository.ProcessedRequest) error {
	m.CreateCalls++
	if len(m.CreateErrs) > 0 {
		err := m.CreateErrs[0]
		m.CreateErrs = m.CreateErrs[1:]
		if err != nil {
			return err
		}
	}
	m.CreatedOrder = order
	m.SavedEvents = append([]domain.Event(nil), events...)
	m.SavedRequest = req
	m.Orders[order.ID] = order
	m.ProcessedRequests[req.RequestID] = req
	return nil
}

func (m *MockRepository) UpdateOrder(_ context.Context, order *domain.Order, events []domain.Event, req *repository.ProcessedRequest) error {
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.UpdatedOrder = order
	m.SavedEvents = append([]domain.Event(nil), events...)
	m.SavedRequest = req
	m.ProcessedRequests[req.RequestID] = req
	return nil
}

func (m *MockRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.GetOrderCalls++
	if m.GetOrderErr != nil {
		return nil, m.GetOrderErr
	}
	order, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockRepository) GetProcessedRequest(_ context.Context, requestID string) (*repository.ProcessedRequest, error) {
	if m.GetRequestErr != nil {
		return nil, m.GetRequestErr
	}
	req, ok := m.ProcessedRequests[requestID]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	return req, nil
}

func (m *MockRepository) GetSequence(context.Context, string) (*repository.BranchSequence, error) {
	return nil, repository.ErrSequenceNotFound
}

func (m *MockRepository) InsertSequence(context.Context, string, int64) error { return nil }

func (m *MockRepository) UpdateSequence(context.Context, string, int64, int64) error { return nil }

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventProcessed(context.Context, int64) error { return nil }

func (m *MockRepository) MarkEventFailed(context.Context, int64, string) error { return nil }

func (m *MockRepository) RunMigrations(*repository.Credentials) error { return nil }

func (m *MockRepository) Close() error { return nil }

// MockNumberSource implements NumberSource for testing.
type MockNumberSource struct {
	Next64 int64
	Err    error
	Calls  int
}

func (m *MockNumberSource) Next(context.Context, string) (int64, error) {
	m.Calls++
	if m.Err != nil {
		return 0, m.Err
	}
	m.Next64++
	return m.Next64, nil
}

// MockVerifier implements customer.Verifier for testing.
type MockVerifier struct {
	Status customer.Status
	Err    error
	Calls  int
}

func (m *MockVerifier) Verify(context.Context, string) (customer.Status, error) {
	m.Calls++
	if m.Status == "" {
		return customer.StatusConfirmed, nil
	}
	return m.Status, m.Err
}

var errInfra = errors.New("database connection error")
