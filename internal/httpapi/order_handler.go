// Package httpapi is thin shaping over the command service; all business
// rules live in the domain and service layers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
	"github.com/lindembergz/123Vendas-sub000/internal/service"
)

// IdempotencyKeyHeader carries the caller-supplied request id that
// deduplicates command submissions.
const IdempotencyKeyHeader = "Idempotency-Key"

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{service: svc}
}

type LineDTO struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type CreateOrderDTO struct {
	CustomerID string    `json:"customer_id"`
	BranchID   string    `json:"branch_id"`
	Lines      []LineDTO `json:"lines"`
}

type UpdateOrderDTO struct {
	Lines []LineDTO `json:"lines"`
}

type OrderResultDTO struct {
	OrderID          string  `json:"order_id"`
	OrderNumber      int64   `json:"order_number"`
	Status           string  `json:"status"`
	TotalAmount      float64 `json:"total_amount"`
	AlreadyProcessed bool    `json:"already_processed"`
}

type OrderLineDTO struct {
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	DiscountRate float64 `json:"discount_rate"`
	LineTotal    float64 `json:"line_total"`
}

type OrderDTO struct {
	ID          string         `json:"id"`
	OrderNumber int64          `json:"order_number"`
	CustomerID  string         `json:"customer_id"`
	BranchID    string         `json:"branch_id"`
	Status      string         `json:"status"`
	Lines       []OrderLineDTO `json:"lines"`
	TotalAmount float64        `json:"total_amount"`
	CreatedAt   string         `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(IdempotencyKeyHeader)
	if requestID == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}

	var dto CreateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	result, err := h.service.CreateOrder(r.Context(), &service.CreateOrderRequest{
		RequestID:  requestID,
		CustomerID: dto.CustomerID,
		BranchID:   dto.BranchID,
		Lines:      toLineRequests(dto.Lines),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyProcessed {
		status = http.StatusOK
	}
	respondJSON(w, status, toResultDTO(result))
}

// PUT /api/v1/orders/{order_id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(IdempotencyKeyHeader)
	if requestID == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}
	orderID := chi.URLParam(r, "order_id")

	var dto UpdateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	result, err := h.service.UpdateOrder(r.Context(), &service.UpdateOrderRequest{
		RequestID: requestID,
		OrderID:   orderID,
		Lines:     toLineRequests(dto.Lines),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultDTO(result))
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(IdempotencyKeyHeader)
	if requestID == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}
	orderID := chi.URLParam(r, "order_id")

	result, err := h.service.CancelOrder(r.Context(), &service.CancelOrderRequest{
		RequestID: requestID,
		OrderID:   orderID,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultDTO(result))
}

// GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func toLineRequests(lines []LineDTO) []service.LineRequest {
	out := make([]service.LineRequest, len(lines))
	for i, line := range lines {
		out[i] = service.LineRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}
	return out
}

func toResultDTO(result *service.OrderResult) OrderResultDTO {
	return OrderResultDTO{
		OrderID:          result.OrderID,
		OrderNumber:      result.Number,
		Status:           result.Status.String(),
		TotalAmount:      result.Total,
		AlreadyProcessed: result.AlreadyProcessed,
	}
}

func toOrderDTO(order *domain.Order) OrderDTO {
	lines := make([]OrderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineDTO{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			DiscountRate: line.DiscountRate,
			LineTotal:    line.Total(),
		})
	}
	return OrderDTO{
		ID:          order.ID,
		OrderNumber: order.Number,
		CustomerID:  order.CustomerID,
		BranchID:    order.BranchID,
		Status:      order.Status.String(),
		Lines:       lines,
		TotalAmount: order.Total(),
		CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsRuleViolation(err):
		respondError(w, http.StatusUnprocessableEntity, "business_rule_violation", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, service.ErrMissingRequestID):
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
