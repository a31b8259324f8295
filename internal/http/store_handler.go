package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/repository"
	"github.com/cujumbu/multistore2/internal/tenant"
)

type StoreHandler struct {
	tenants TenantResolver
	timeout time.Duration
}

func NewStoreHandler(tenants TenantResolver, timeout time.Duration) *StoreHandler {
	return &StoreHandler{
		tenants: tenants,
		timeout: timeout,
	}
}

// StorefrontDTO is the public view of a tenant: no payment secrets, only
// what the storefront client needs to render and start a checkout.
type StorefrontDTO struct {
	Store          *domain.Store         `json:"store"`
	Theme          domain.ThemeSettings  `json:"theme"`
	Locale         domain.LocaleSettings `json:"locale"`
	PublishableKey string                `json:"publishable_key"`
}

// GET /api/v1/store
func (h *StoreHandler) GetStorefront(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resolved, err := h.tenants.Resolve(ctx, r.Host)
	switch {
	case errors.Is(err, tenant.ErrInvalidDomain):
		respondError(w, http.StatusBadRequest, "invalid_domain", "invalid domain format")
		return
	case errors.Is(err, repository.ErrStoreNotFound):
		respondError(w, http.StatusNotFound, "store_not_found", "no active store found for this domain")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load store")
		return
	}

	respondJSON(w, http.StatusOK, StorefrontDTO{
		Store:          resolved.Store,
		Theme:          resolved.Settings.Theme,
		Locale:         resolved.Settings.Locale,
		PublishableKey: resolved.Settings.Payment.PublishableKey,
	})
}
