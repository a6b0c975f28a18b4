package stock

import "errors"

var (
	ErrInsufficientStock   = errors.New("insufficient stock on hand")
	ErrInsufficientEmpties = errors.New("insufficient empty cylinders on hand")
	ErrInsufficientLoaned  = errors.New("insufficient cylinders on loan")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrNotReturnable       = errors.New("product is not a returnable container")
	ErrUnknownKind         = errors.New("unknown movement kind")
	ErrLineNotFound        = errors.New("stock line not found")
)
