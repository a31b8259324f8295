package domain

import "encoding/json"

// Recognized payment provider event types. Anything else is acknowledged
// without action.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

// PaymentEvent is a provider-pushed notification after signature
// verification. Object holds the raw provider object (`data.object`),
// decoded lazily by the reconciler depending on Type.
type PaymentEvent struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}
