package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/repository"
)

// Ledger is the durable order/event store the reconciler applies
// authenticated events to.
type Ledger interface {
	MarkOrderPaid(ctx context.Context, eventID, sessionID, paymentIntentID string, payload []byte) error
	MarkOrderCaptured(ctx context.Context, eventID, paymentIntentID string, payload []byte) error
}

// Reconciler applies provider events to persisted order state. The
// provider delivers at least once; applying the same event twice must not
// fulfill twice, which the ledger guarantees via the event-id record.
type Reconciler struct {
	ledger Ledger
}

func NewReconciler(ledger Ledger) *Reconciler {
	return &Reconciler{ledger: ledger}
}

type sessionObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	AmountTotal   int64  `json:"amount_total"`
}

type intentObject struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

// Process dispatches one authenticated event. Unknown event types are
// acknowledged without action; a replayed event id is a no-op.
func (r *Reconciler) Process(ctx context.Context, event *domain.PaymentEvent) error {
	switch event.Type {
	case domain.EventCheckoutSessionCompleted:
		return r.applySessionCompleted(ctx, event)
	case domain.EventPaymentIntentSucceeded:
		return r.applyIntentSucceeded(ctx, event)
	default:
		log.Printf("unhandled event type: %s", event.Type)
		return nil
	}
}

func (r *Reconciler) applySessionCompleted(ctx context.Context, event *domain.PaymentEvent) error {
	var session sessionObject
	if err := json.Unmarshal(event.Object, &session); err != nil {
		return fmt.Errorf("decode session object: %w", err)
	}

	err := r.ledger.MarkOrderPaid(ctx, event.ID, session.ID, session.PaymentIntent, event.Object)
	switch {
	case errors.Is(err, repository.ErrEventAlreadyProcessed):
		log.Printf("event %s already processed, skipping", event.ID)
		return nil
	case errors.Is(err, repository.ErrOrderNotFound):
		log.Printf("no order for session %s, event %s recorded without reconciliation", session.ID, event.ID)
		return nil
	case err != nil:
		return fmt.Errorf("mark order paid: %w", err)
	}

	log.Printf("payment successful: session=%s amount=%d intent=%s", session.ID, session.AmountTotal, session.PaymentIntent)
	return nil
}

func (r *Reconciler) applyIntentSucceeded(ctx context.Context, event *domain.PaymentEvent) error {
	var intent intentObject
	if err := json.Unmarshal(event.Object, &intent); err != nil {
		return fmt.Errorf("decode payment intent object: %w", err)
	}

	err := r.ledger.MarkOrderCaptured(ctx, event.ID, intent.ID, event.Object)
	if errors.Is(err, repository.ErrEventAlreadyProcessed) {
		log.Printf("event %s already processed, skipping", event.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark order captured: %w", err)
	}

	log.Printf("payment captured: intent=%s amount=%d", intent.ID, intent.Amount)
	return nil
}
