package domain

// OrderLine is an immutable line value. Quantity changes produce a new line
// with the discount rate recomputed for the new quantity.
type OrderLine struct {
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	DiscountRate float64 `json:"discount_rate"`
}

func NewOrderLine(productID string, quantity int, unitPrice float64) (OrderLine, error) {
	rate, err := DiscountRate(quantity)
	if err != nil {
		return OrderLine{}, err
	}
	return OrderLine{
		ProductID:    productID,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		DiscountRate: rate,
	}, nil
}

func (l OrderLine) Total() float64 {
	return float64(l.Quantity) * l.UnitPrice * (1 - l.DiscountRate)
}
