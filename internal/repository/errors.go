package repository

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductReferenced = errors.New("product is referenced by cart lines")
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")

	// ErrDuplicateSession signals that a payment row for the external session
	// id already exists. Completion treats it the same as the pre-check hit.
	ErrDuplicateSession = errors.New("payment for this session already exists")
)
