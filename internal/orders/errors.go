package orders

import "errors"

// Domain errors. Handlers map these onto HTTP status codes; everything
// else is treated as an unclassified failure at the boundary.
var (
	ErrValidation        = errors.New("required input missing")
	ErrAmountMismatch    = errors.New("total amount does not match")
	ErrTokenConflict     = errors.New("token already used")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("order status does not allow this transition")
)
