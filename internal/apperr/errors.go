package apperr

import "errors"

// ErrInvalid is returned when the input fails basic validation (empty address, bad id).
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested delivery or payment does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateAssignment indicates that the order already has an active delivery.
var ErrDuplicateAssignment = errors.New("delivery already assigned for order")

// ErrInvalidTransition indicates a delivery status change not allowed by the lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInvalidAmount indicates a non-positive payment amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidPaymentMethod indicates an unknown payment method.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// ErrAlreadyRefunded indicates that the payment for the order was already refunded.
var ErrAlreadyRefunded = errors.New("payment already refunded")

// ErrNoPartnerAvailable indicates that the matcher found no courier for the order.
var ErrNoPartnerAvailable = errors.New("no delivery partner available")

// ErrGatewayUnavailable indicates that the payment gateway call failed.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")
