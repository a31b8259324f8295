package repository

import "errors"

var (
	ErrStoreNotFound         = errors.New("no active store found for domain")
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductNotFound       = errors.New("product not found in store catalog")
	ErrDuplicateSession      = errors.New("order already exists for provider session")
	ErrEventAlreadyProcessed = errors.New("payment event already processed")
	ErrIllegalTransition     = errors.New("illegal order status transition")
)
