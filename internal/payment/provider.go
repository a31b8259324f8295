package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProviderUnavailable = errors.New("payment provider unavailable")

// LineItem is one priced line in a provider session. UnitAmount is in the
// currency's minor unit.
type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

// SessionParams describes one hosted checkout session to be created with
// the provider. IdempotencyKey collapses duplicate submissions into a
// single session on the provider side.
type SessionParams struct {
	Currency       string
	Items          []LineItem
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// CheckoutSession is the provider-assigned session handle. Only the id is
// stored; the session itself is owned by the provider.
type CheckoutSession struct {
	ID          string
	AmountTotal int64
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*CheckoutSession, error)
}

var oneHundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit decimal price into the provider's
// minor-unit integer, rounding to the nearest unit.
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(oneHundred).Round(0).IntPart()
}
