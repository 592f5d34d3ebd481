package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lindembergz/123Vendas-sub000/internal/customer"
	"github.com/lindembergz/123Vendas-sub000/internal/domain"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

// Command kind tags recorded with each processed request id.
const (
	CommandCreateOrder = "CREATE_ORDER"
	CommandUpdateOrder = "UPDATE_ORDER"
	CommandCancelOrder = "CANCEL_ORDER"
)

var ErrMissingRequestID = errors.New("request id is required")

type LineRequest struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

type CreateOrderRequest struct {
	RequestID  string
	CustomerID string
	BranchID   string
	Lines      []LineRequest
}

type UpdateOrderRequest struct {
	RequestID string
	OrderID   string
	Lines     []LineRequest
}

type CancelOrderRequest struct {
	RequestID string
	OrderID   string
}

// OrderResult is the command outcome. AlreadyProcessed marks an idempotent
// replay: the command was recorded before and no new side effects ran.
type OrderResult struct {
	OrderID          string
	Number           int64
	Status           domain.OrderStatus
	Total            float64
	AlreadyProcessed bool
}

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResult, error)
	UpdateOrder(ctx context.Context, req *UpdateOrderRequest) (*OrderResult, error)
	CancelOrder(ctx context.Context, req *CancelOrderRequest) (*OrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// NumberSource hands out branch-scoped order numbers.
type NumberSource interface {
	Next(ctx context.Context, branchID string) (int64, error)
}

type OrderServiceImpl struct {
	repo     repository.OrderRepository
	numbers  NumberSource
	verifier customer.Verifier
}

func NewOrderService(repo repository.OrderRepository, numbers NumberSource, verifier customer.Verifier) *OrderServiceImpl {
	return &OrderServiceImpl{
		repo:     repo,
		numbers:  numbers,
		verifier: verifier,
	}
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, orderID)
}

// checkProcessed returns the previously recorded result for a request id, or
// nil when the id is unseen (or expired).
func (s *OrderServiceImpl) checkProcessed(ctx context.Context, requestID string) (*OrderResult, error) {
	prev, err := s.repo.GetProcessedRequest(ctx, requestID)
	if errors.Is(err, repository.ErrRequestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	return &OrderResult{OrderID: prev.OrderID, AlreadyProcessed: true}, nil
}

func toLineInputs(lines []LineRequest) []domain.LineInput {
	inputs := make([]domain.LineInput, len(lines))
	for i, line := range lines {
		inputs[i] = domain.LineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}
	return inputs
}
