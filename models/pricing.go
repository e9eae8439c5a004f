package models

import "github.com/shopspring/decimal"

// PricingResult is derived from the cart on every query and never stored.
type PricingResult struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// QuoteItem is a caller-supplied line for a stateless quote. UnitPrice is a
// pointer so an omitted price is rejected rather than read as zero.
type QuoteItem struct {
	ProductID string           `json:"product_id" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gte=1"`
}

// QuoteRequest is the payload for POST /pricing/quote.
type QuoteRequest struct {
	Items      []QuoteItem `json:"items" binding:"required,dive"`
	CouponCode string      `json:"coupon_code"`
}
