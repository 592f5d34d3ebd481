package service

import (
	"context"
	"log"

	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

func (s *OrderServiceImpl) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*OrderResult, error) {
	if req.RequestID == "" {
		return nil, ErrMissingRequestID
	}

	// A replayed cancel short-circuits without re-reading the aggregate.
	if prev, err := s.checkProcessed(ctx, req.RequestID); err != nil {
		return nil, err
	} else if prev != nil {
		log.Printf("duplicate request %s, returning order %s", req.RequestID, prev.OrderID)
		return prev, nil
	}

	order, err := s.repo.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(); err != nil {
		return nil, err
	}

	procReq := &repository.ProcessedRequest{
		RequestID: req.RequestID,
		Command:   CommandCancelOrder,
		OrderID:   order.ID,
	}
	if err := s.repo.UpdateOrder(ctx, order, order.Events(), procReq); err != nil {
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
