package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusActive            OrderStatus = "ACTIVE"
	StatusPendingValidation OrderStatus = "PENDING_VALIDATION"
	StatusCancelled         OrderStatus = "CANCELLED"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// MaxUnitPrice is the accepted ceiling for a line's unit price.
const MaxUnitPrice = 1_000_000.0

// Order is the consistency unit for all business-rule validation. At most
// one line exists per product id; staged events are drained by the command
// handler after a successful atomic persist.
type Order struct {
	ID         string
	Number     int64
	CustomerID string
	BranchID   string
	Status     OrderStatus
	Lines      []OrderLine
	CreatedAt  time.Time

	events []Event
}

// LineInput is a requested line before consolidation.
type LineInput struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

func NewOrder(customerID, branchID string) *Order {
	return &Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		BranchID:   branchID,
		Status:     StatusActive,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkPendingValidation routes a new order into PENDING_VALIDATION when the
// customer could not be confirmed. It is a fallback, not a rejection.
func (o *Order) MarkPendingValidation() {
	if o.Status == StatusActive {
		o.Status = StatusPendingValidation
	}
}

func (o *Order) Total() float64 {
	var total float64
	for _, line := range o.Lines {
		total += line.Total()
	}
	return total
}

// AddLine appends a line for a new product or merges the quantity into the
// existing line for that product. A merged line keeps its original unit price
// and gets the discount rate for the summed quantity. The existing line is
// untouched when the summed quantity exceeds the policy cap.
func (o *Order) AddLine(productID string, quantity int, unitPrice float64) error {
	if o.Status == StatusCancelled {
		return ErrOrderCancelled
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if unitPrice <= 0 || unitPrice > MaxUnitPrice {
		return ErrInvalidUnitPrice
	}

	var changed OrderLine
	if i := o.lineIndex(productID); i >= 0 {
		merged := o.Lines[i].Quantity + quantity
		if !QuantityAllowed(merged) {
			return ErrQuantityLimitExceeded
		}
		line, err := NewOrderLine(productID, merged, o.Lines[i].UnitPrice)
		if err != nil {
			return err
		}
		o.Lines[i] = line
		changed = line
	} else {
		line, err := NewOrderLine(productID, quantity, unitPrice)
		if err != nil {
			return err
		}
		o.Lines = append(o.Lines, line)
		changed = line
	}

	o.stage(OrderLinesChanged{
		OrderID:      o.ID,
		ProductID:    changed.ProductID,
		Quantity:     changed.Quantity,
		DiscountRate: changed.DiscountRate,
		Total:        o.Total(),
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

// RemoveLine removes quantity units of a product. Removing the full line
// quantity deletes the line; a partial removal recomputes the discount rate
// for the remaining quantity.
func (o *Order) RemoveLine(productID string, quantity int) error {
	if o.Status == StatusCancelled {
		return ErrOrderCancelled
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i := o.lineIndex(productID)
	if i < 0 {
		return ErrProductNotInOrder
	}
	if quantity > o.Lines[i].Quantity {
		return ErrRemoveExceedsQuantity
	}
	if quantity == o.Lines[i].Quantity {
		return o.CancelLine(productID)
	}

	line, err := NewOrderLine(productID, o.Lines[i].Quantity-quantity, o.Lines[i].UnitPrice)
	if err != nil {
		return err
	}
	o.Lines[i] = line

	o.stage(OrderLinesChanged{
		OrderID:      o.ID,
		ProductID:    line.ProductID,
		Quantity:     line.Quantity,
		DiscountRate: line.DiscountRate,
		Total:        o.Total(),
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

// CancelLine deletes a product's line entirely.
func (o *Order) CancelLine(productID string) error {
	if o.Status == StatusCancelled {
		return ErrOrderCancelled
	}
	i := o.lineIndex(productID)
	if i < 0 {
		return ErrProductNotInOrder
	}
	o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)

	o.stage(OrderLineCancelled{
		OrderID:    o.ID,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// ReplaceLines reconciles the order's lines with the requested set. Duplicate
// product ids in the input are consolidated first: quantities are summed and
// the first occurrence's unit price wins. Products absent from the input are
// removed, new products added, quantity changes applied as deltas; unchanged
// quantities stage no event. The first failure aborts the replace; callers
// must discard the in-memory aggregate on failure since earlier edits are not
// rolled back in memory, only never persisted.
func (o *Order) ReplaceLines(inputs []LineInput) error {
	if o.Status == StatusCancelled {
		return ErrOrderCancelled
	}

	consolidated := consolidateInputs(inputs)
	requested := make(map[string]LineInput, len(consolidated))
	for _, in := range consolidated {
		requested[in.ProductID] = in
	}

	existing := append([]OrderLine(nil), o.Lines...)
	for _, line := range existing {
		if _, ok := requested[line.ProductID]; !ok {
			if err := o.CancelLine(line.ProductID); err != nil {
				return err
			}
		}
	}

	for _, in := range consolidated {
		i := o.lineIndex(in.ProductID)
		if i < 0 {
			if err := o.AddLine(in.ProductID, in.Quantity, in.UnitPrice); err != nil {
				return err
			}
			continue
		}
		delta := in.Quantity - o.Lines[i].Quantity
		switch {
		case delta > 0:
			if err := o.AddLine(in.ProductID, delta, in.UnitPrice); err != nil {
				return err
			}
		case delta < 0:
			if err := o.RemoveLine(in.ProductID, -delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cancel is one-directional; a cancelled order rejects every further mutation.
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	o.Status = StatusCancelled

	o.stage(OrderCancelled{
		OrderID:    o.ID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// AssignNumber sets the order number exactly once and stages the creation
// event. Only meaningful for brand-new orders.
func (o *Order) AssignNumber(n int64) error {
	if n < 1 {
		return ErrInvalidOrderNumber
	}
	if o.Number != 0 {
		return ErrNumberAlreadyAssigned
	}
	o.Number = n

	o.stage(OrderCreated{
		OrderID:    o.ID,
		Number:     n,
		CustomerID: o.CustomerID,
		BranchID:   o.BranchID,
		Total:      o.Total(),
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// Renumber replaces a previously assigned number after a storage collision on
// (branch, number) and patches the staged creation event to match.
func (o *Order) Renumber(n int64) error {
	if n < 1 {
		return ErrInvalidOrderNumber
	}
	if o.Number == 0 {
		return ErrNumberNotAssigned
	}
	o.Number = n
	for i, ev := range o.events {
		if created, ok := ev.(OrderCreated); ok {
			created.Number = n
			o.events[i] = created
		}
	}
	return nil
}

// Events returns a copy of the staged domain events.
func (o *Order) Events() []Event {
	out := make([]Event, len(o.events))
	copy(out, o.events)
	return out
}

// ClearEvents is called by the command handler after the staged events have
// been persisted to the outbox.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) stage(ev Event) {
	o.events = append(o.events, ev)
}

func (o *Order) lineIndex(productID string) int {
	for i, line := range o.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// consolidateInputs merges duplicate product ids, summing quantities and
// keeping the first occurrence's unit price. Order of first appearance is
// preserved.
func consolidateInputs(inputs []LineInput) []LineInput {
	out := make([]LineInput, 0, len(inputs))
	index := make(map[string]int, len(inputs))
	for _, in := range inputs {
		if i, ok := index[in.ProductID]; ok {
			out[i].Quantity += in.Quantity
			continue
		}
		index[in.ProductID] = len(out)
		out = append(out, in)
	}
	return out
}
