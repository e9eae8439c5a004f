package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartEvent mirrors a committed cart notification onto the event bus.
type CartEvent struct {
	Event     string    `json:"event"` // e.g. "cart.item_added"
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutEvent is published when a cart is checked out.
type CheckoutEvent struct {
	Event      string          `json:"event"` // "checkout.requested"
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	Items      []LineItem      `json:"items"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Pricing    PricingResult   `json:"pricing"`
	Shipping   ShippingDetails `json:"shipping"`
	Payment    string          `json:"payment_method"`
	Timestamp  time.Time       `json:"timestamp"`
}

// CouponAppliedEvent is published to SNS when a coupon is applied to a cart.
type CouponAppliedEvent struct {
	EventType      string          `json:"event_type"`
	UserID         string          `json:"user_id"`
	CouponCode     string          `json:"coupon_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CartSubtotal   decimal.Decimal `json:"cart_subtotal"`
	Timestamp      time.Time       `json:"timestamp"`
}
