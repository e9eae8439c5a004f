package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a product reference with a quantity inside a cart.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"` // effective selling price
	Quantity  int             `json:"quantity"`
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is the persisted snapshot of a user's cart.
type Cart struct {
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	CouponCode string     `json:"coupon_code,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartView is what the presentation layer receives after every cart call.
type CartView struct {
	UserID      string        `json:"user_id"`
	Items       []LineItem    `json:"items"`
	Count       int           `json:"count"`
	CouponCode  string        `json:"coupon_code,omitempty"`
	CouponError string        `json:"coupon_error,omitempty"`
	Pricing     PricingResult `json:"pricing"`
	Messages    []string      `json:"messages,omitempty"`
}

// AddItemRequest is the payload for POST /cart/add.
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity"` // defaults to 1
}

// UpdateQuantityRequest is the payload for PUT /cart/update.
type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}
