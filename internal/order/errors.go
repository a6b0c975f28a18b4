package order

import "errors"

var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrInvalidTransition         = errors.New("invalid order status transition")
	ErrMissingDeliverer          = errors.New("a deliverer is required to dispatch the order")
	ErrMissingCancellationReason = errors.New("a cancellation reason is required")
	ErrEmptyOrder                = errors.New("order must contain at least one item")
	ErrMissingCustomer           = errors.New("customer is required")
	ErrInvalidItemQuantity       = errors.New("item quantity must be greater than zero")
	ErrInvalidPaymentMethod      = errors.New("invalid payment method")
	ErrInvalidChannel            = errors.New("invalid order channel")
	ErrMissingDeliveryAddress    = errors.New("delivery address is required")
	ErrItemNotReturnable         = errors.New("item is flagged for empty return but the product is not a returnable container")
)
