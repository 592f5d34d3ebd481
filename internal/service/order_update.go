package service

import (
	"context"
	"log"

	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

func (s *OrderServiceImpl) UpdateOrder(ctx context.Context, req *UpdateOrderRequest) (*OrderResult, error) {
	if req.RequestID == "" {
		return nil, ErrMissingRequestID
	}

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

	// On failure the partially edited aggregate is discarded; nothing was persisted.
	if err := order.ReplaceLines(toLineInputs(req.Lines)); err != nil {
		return nil, err
	}

	procReq := &repository.ProcessedRequest{
		RequestID: req.RequestID,
		Command:   CommandUpdateOrder,
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
