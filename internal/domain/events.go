package domain

import "time"

// Event type tags stored on outbox records and used by the dispatcher to
// pick a decoder.
const (
	EventOrderCreated       = "OrderCreated"
	EventOrderLinesChanged  = "OrderLinesChanged"
	EventOrderLineCancelled = "OrderLineCancelled"
	EventOrderCancelled     = "OrderCancelled"
)

type Event interface {
	EventType() string
	Aggregate() string
}

type OrderCreated struct {
	OrderID    string    `json:"order_id"`
	Number     int64     `json:"order_number"`
	CustomerID string    `json:"customer_id"`
	BranchID   string    `json:"branch_id"`
	Total      float64   `json:"total_amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e OrderCreated) EventType() string { return EventOrderCreated }
func (e OrderCreated) Aggregate() string { return e.OrderID }

type OrderLinesChanged struct {
	OrderID      string    `json:"order_id"`
	ProductID    string    `json:"product_id"`
	Quantity     int       `json:"quantity"`
	DiscountRate float64   `json:"discount_rate"`
	Total        float64   `json:"total_amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e OrderLinesChanged) EventType() string { return EventOrderLinesChanged }
func (e OrderLinesChanged) Aggregate() string { return e.OrderID }

type OrderLineCancelled struct {
	OrderID    string    `json:"order_id"`
	ProductID  string    `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e OrderLineCancelled) EventType() string { return EventOrderLineCancelled }
func (e OrderLineCancelled) Aggregate() string { return e.OrderID }

type OrderCancelled struct {
	OrderID    string    `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e OrderCancelled) EventType() string { return EventOrderCancelled }
func (e OrderCancelled) Aggregate() string { return e.OrderID }
