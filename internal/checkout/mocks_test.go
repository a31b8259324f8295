package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/payment"
	"github.com/cujumbu/multistore2/internal/tenant"
)

// MockTenantResolver implements TenantResolver for testing
type MockTenantResolver struct {
	Tenant *tenant.Tenant
	Err    error
}

func (m *MockTenantResolver) Resolve(_ context.Context, _ string) (*tenant.Tenant, error) {
	return m.Tenant, m.Err
}

// MockCatalogReader implements CatalogReader for testing
type MockCatalogReader struct {
	Entries map[uuid.UUID]domain.CatalogEntry
	Err     error
	Calls   int
}

func (m *MockCatalogReader) StoreProductPrices(_ context.Context, _ uuid.UUID, _ []uuid.UUID) (map[uuid.UUID]domain.CatalogEntry, error) {
	m.Calls++
	return m.Entries, m.Err
}

// MockProvider implements payment.Provider and captures the params passed
// to CreateCheckoutSession.
type MockProvider struct {
	Session *payment.CheckoutSession
	Err     error
	Calls   int
	Params  []payment.SessionParams
}

func (m *MockProvider) CreateCheckoutSession(_ context.Context, params payment.SessionParams) (*payment.CheckoutSession, error) {
	m.Calls++
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Session, nil
}

// MockProviderSource implements ProviderSource for testing
type MockProviderSource struct {
	Provider payment.Provider
	Err      error
}

func (m *MockProviderSource) For(_ uuid.UUID, _ *domain.StoreSettings) (payment.Provider, error) {
	return m.Provider, m.Err
}

// MockOrderWriter implements OrderWriter for testing
type MockOrderWriter struct {
	Err     error
	Created []*domain.Order
}

func (m *MockOrderWriter) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, order)
	return nil
}
