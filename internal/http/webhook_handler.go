package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/tenant"
	"github.com/cujumbu/multistore2/internal/webhook"
)

// TenantResolver narrows tenant.Resolver to what the handlers need.
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (*tenant.Tenant, error)
}

type Reconciler interface {
	Process(ctx context.Context, event *domain.PaymentEvent) error
}

type WebhookHandler struct {
	tenants     TenantResolver
	verifier    webhook.Verifier
	reconciler  Reconciler
	maxBodySize int64
}

func NewWebhookHandler(tenants TenantResolver, verifier webhook.Verifier, reconciler Reconciler) *WebhookHandler {
	return &WebhookHandler{
		tenants:     tenants,
		verifier:    verifier,
		reconciler:  reconciler,
		maxBodySize: 1 << 20, // 1MB
	}
}

type WebhookResponseDTO struct {
	Received bool `json:"received"`
}

// POST /api/v1/webhooks/payment
//
// The body must be read as raw bytes before any parsing: the signature is
// computed over the exact payload.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		respondError(w, http.StatusBadRequest, "missing_signature", "missing signature or webhook secret")
		return
	}

	resolved, err := h.tenants.Resolve(r.Context(), r.Host)
	if err != nil {
		log.Printf("webhook tenant resolution failed for host %q: %v", r.Host, err)
		respondError(w, http.StatusBadRequest, "unknown_tenant", "missing signature or webhook secret")
		return
	}
	secret := resolved.Settings.Payment.WebhookSecret
	if secret == "" {
		respondError(w, http.StatusBadRequest, "missing_secret", "missing signature or webhook secret")
		return
	}

	event, err := h.verifier.Verify(payload, signature, secret)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			log.Printf("webhook signature verification failed: %v", err)
			respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_event", "invalid webhook event")
		return
	}

	// A non-2xx here makes the provider redeliver; the ledger keeps the
	// redelivery harmless.
	if err := h.reconciler.Process(r.Context(), event); err != nil {
		log.Printf("webhook event %s failed to apply: %v", event.ID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to process event")
		return
	}

	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true})
}
