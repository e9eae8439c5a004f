package cart

import "errors"

var (
	// ErrInvalidQuantity is returned when a quantity below 1 is supplied.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound is returned when updating a product that is not in the cart.
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrInvalidLineItem is returned for line items missing an id or carrying a negative price.
	ErrInvalidLineItem = errors.New("invalid line item")
)
