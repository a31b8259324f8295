package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cujumbu/multistore2/internal/repository"
	"github.com/cujumbu/multistore2/internal/tenant"
)

func TestStoreHandler_GetStorefront(t *testing.T) {
	tn := webhookTenant()
	tn.Settings.Payment.PublishableKey = "pk_test_123"
	tn.Settings.Payment.SecretKey = "sk_test_123"
	handler := NewStoreHandler(&MockWebhookTenants{Tenant: tn}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	req.Host = "tasker.dk"
	w := httptest.NewRecorder()
	handler.GetStorefront(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp StorefrontDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tasker.dk", resp.Store.Domain)
	assert.Equal(t, "DKK", resp.Locale.Currency)
	assert.Equal(t, "pk_test_123", resp.PublishableKey)

	// The secret key and webhook secret must never reach the client.
	assert.NotContains(t, w.Body.String(), "sk_test_123")
	assert.NotContains(t, w.Body.String(), "whsec_test")
}

func TestStoreHandler_GetStorefront_StoreNotFound(t *testing.T) {
	handler := NewStoreHandler(&MockWebhookTenants{Err: repository.ErrStoreNotFound}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	req.Host = "unknown.dk"
	w := httptest.NewRecorder()
	handler.GetStorefront(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreHandler_GetStorefront_InvalidDomain(t *testing.T) {
	handler := NewStoreHandler(&MockWebhookTenants{Err: tenant.ErrInvalidDomain}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	req.Host = "-bad-.x"
	w := httptest.NewRecorder()
	handler.GetStorefront(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_domain", resp.Code)
}

func TestStoreHandler_GetStorefront_ReaderFailure(t *testing.T) {
	handler := NewStoreHandler(&MockWebhookTenants{Err: assert.AnError}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	req.Host = "tasker.dk"
	w := httptest.NewRecorder()
	handler.GetStorefront(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
