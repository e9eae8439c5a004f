package services

import (
	"errors"
	"net/http"

	"pricing-service/cart"
	"pricing-service/catalog"
	"pricing-service/pricing"
)

var (
	// ErrEmptyCart is returned when checking out a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrStoreUnavailable wraps failures of the remote cart store.
	ErrStoreUnavailable = errors.New("cart storage unavailable")
	// ErrCheckoutUnavailable is returned when no event publisher is configured.
	ErrCheckoutUnavailable = errors.New("checkout is not available")
	// ErrPublishFailed wraps failures to publish a checkout event.
	ErrPublishFailed = errors.New("failed to publish checkout event")
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// toServiceError maps domain errors onto HTTP status codes. Client errors keep
// their message; server errors get a generic one.
func toServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidLineItem),
		errors.Is(err, pricing.ErrInvalidCoupon),
		errors.Is(err, ErrEmptyCart):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrCheckoutUnavailable):
		status = http.StatusServiceUnavailable
		if errors.Is(err, ErrStoreUnavailable) {
			message = ErrStoreUnavailable.Error()
		} else {
			message = ErrCheckoutUnavailable.Error()
		}
	case errors.Is(err, ErrPublishFailed):
		status, message = http.StatusBadGateway, ErrPublishFailed.Error()
	}
	return &ServiceError{StatusCode: status, Message: message, Err: err}
}
