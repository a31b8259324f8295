package checkout

import "errors"

var (
	ErrEmptyCart      = errors.New("cart is empty, nothing to checkout")
	ErrInvalidRequest = errors.New("invalid checkout request")
	ErrUnknownProduct = errors.New("item is not in the store catalog")
	ErrPriceMismatch  = errors.New("item price does not match the catalog price")
)
