package domain

// Quantity tiers for the volume discount. A consolidated quantity above
// MaxQuantityPerProduct is rejected outright.
const (
	MaxQuantityPerProduct = 20

	tenPercentMinQuantity    = 4
	twentyPercentMinQuantity = 10

	tenPercentRate    = 0.10
	twentyPercentRate = 0.20
)

// DiscountRate returns the discount rate for a consolidated line quantity.
func DiscountRate(quantity int) (float64, error) {
	switch {
	case quantity < 1:
		return 0, ErrInvalidQuantity
	case quantity > MaxQuantityPerProduct:
		return 0, ErrQuantityLimitExceeded
	case quantity >= twentyPercentMinQuantity:
		return twentyPercentRate, nil
	case quantity >= tenPercentMinQuantity:
		return tenPercentRate, nil
	default:
		return 0, nil
	}
}

// QuantityAllowed lets callers pre-check a quantity without producing an error.
func QuantityAllowed(quantity int) bool {
	return quantity >= 1 && quantity <= MaxQuantityPerProduct
}
