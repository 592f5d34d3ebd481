package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lindembergz/123Vendas-sub000/internal/customer"
	"github.com/lindembergz/123Vendas-sub000/internal/domain"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
	"github.com/lindembergz/123Vendas-sub000/internal/retry"
)

// The (branch, number) uniqueness backstop: a create rejected by the index
// re-fetches a number and retries the whole write.
const (
	persistAttempts  = 3
	persistBaseDelay = 50 * time.Millisecond
)

func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResult, error) {
	if req.RequestID == "" {
		return nil, ErrMissingRequestID
	}

	if prev, err := s.checkProcessed(ctx, req.RequestID); err != nil {
		return nil, err
	} else if prev != nil {
		log.Printf("duplicate request %s, returning order %s", req.RequestID, prev.OrderID)
		return prev, nil
	}

	order := domain.NewOrder(req.CustomerID, req.BranchID)

	status, verifyErr := s.verifier.Verify(ctx, req.CustomerID)
	switch status {
	case customer.StatusConfirmed:
	case customer.StatusNotFound:
		log.Printf("customer %s not found, order %s pending validation", req.CustomerID, order.ID)
		order.MarkPendingValidation()
	default:
		log.Printf("customer service unavailable for %s (%v), order %s pending validation", req.CustomerID, verifyErr, order.ID)
		order.MarkPendingValidation()
	}

	for _, line := range req.Lines {
		if err := order.AddLine(line.ProductID, line.Quantity, line.UnitPrice); err != nil {
			return nil, err
		}
	}

	procReq := &repository.ProcessedRequest{
		RequestID: req.RequestID,
		Command:   CommandCreateOrder,
		OrderID:   order.ID,
	}

	isNumberTaken := func(err error) bool {
		return errors.Is(err, repository.ErrDuplicateOrderNumber)
	}
	err := retry.Do(ctx, persistAttempts, retry.Linear(persistBaseDelay), isNumberTaken, func() error {
		number, err := s.numbers.Next(ctx, req.BranchID)
		if err != nil {
			return err
		}
		if order.Number == 0 {
			if err := order.AssignNumber(number); err != nil {
				return err
			}
		} else if err := order.Renumber(number); err != nil {
			return err
		}
		return s.repo.CreateOrder(ctx, order, order.Events(), procReq)
	})
	if err != nil {
		return nil, err
	}
	order.ClearEvents()

	return &OrderResult{
		OrderID: order.ID,
		Number:  order.Number,
		Status:  order.Status,
		Total:   order.Total(),
	}, nil
}
