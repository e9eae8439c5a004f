package models

// ShippingDetails are the contact and delivery fields collected at checkout.
type ShippingDetails struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address" binding:"required"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Notes     string `json:"notes,omitempty"`
}

// CheckoutRequest is the payload for POST /cart/checkout.
type CheckoutRequest struct {
	Shipping      ShippingDetails `json:"shipping" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required,oneof=card cash"`
}

// CheckoutResponse is returned once the checkout event has been published.
type CheckoutResponse struct {
	OrderID  string        `json:"order_id"`
	Pricing  PricingResult `json:"pricing"`
	Replayed bool          `json:"replayed,omitempty"`
	Message  string        `json:"message"`
}
