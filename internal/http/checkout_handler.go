package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cujumbu/multistore2/internal/checkout"
	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/payment"
	"github.com/cujumbu/multistore2/internal/repository"
	"github.com/cujumbu/multistore2/internal/tenant"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, host string, req checkout.Request) (*payment.CheckoutSession, error)
}

type CheckoutHandler struct {
	service CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type CheckoutSessionResponseDTO struct {
	ID string `json:"id"`
}

// POST /api/v1/checkout/session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CartID == "" {
		req.CartID = getSessionIDFromContext(r.Context())
	}

	session, err := h.service.CreateSession(ctx, r.Host, req)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutSessionResponseDTO{ID: session.ID})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "no items provided")
	case errors.Is(err, checkout.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, checkout.ErrUnknownProduct):
		respondError(w, http.StatusBadRequest, "unknown_product", "item is not in the store catalog")
	case errors.Is(err, checkout.ErrPriceMismatch):
		respondError(w, http.StatusBadRequest, "price_mismatch", "item price does not match the catalog price")
	case errors.Is(err, tenant.ErrInvalidDomain):
		respondError(w, http.StatusBadRequest, "invalid_domain", "invalid domain format")
	case errors.Is(err, repository.ErrStoreNotFound):
		respondError(w, http.StatusNotFound, "store_not_found", "no active store found for this domain")
	case errors.Is(err, domain.ErrCheckoutNotReady), errors.Is(err, domain.ErrSettingsInvalid):
		log.Printf("checkout misconfigured: %v", err)
		respondError(w, http.StatusInternalServerError, "checkout_unavailable", "failed to create checkout session")
	default:
		log.Printf("checkout error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create checkout session")
	}
}
