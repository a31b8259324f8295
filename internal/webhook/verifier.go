package webhook

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/cujumbu/multistore2/internal/domain"
)

var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Verifier authenticates a raw webhook payload against the signature
// header and a tenant-held secret.
type Verifier interface {
	Verify(payload []byte, signatureHeader, secret string) (*domain.PaymentEvent, error)
}

// StripeVerifier checks the provider's HMAC signature scheme over the
// exact request bytes, including the timestamp tolerance window.
type StripeVerifier struct{}

func NewStripeVerifier() *StripeVerifier {
	return &StripeVerifier{}
}

func (v *StripeVerifier) Verify(payload []byte, signatureHeader, secret string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return &domain.PaymentEvent{
		ID:     event.ID,
		Type:   string(event.Type),
		Object: event.Data.Raw,
	}, nil
}
