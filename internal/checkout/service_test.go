package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/payment"
	"github.com/cujumbu/multistore2/internal/repository"
	"github.com/cujumbu/multistore2/internal/tenant"
)

type fixture struct {
	service  *Service
	tenants  *MockTenantResolver
	catalog  *MockCatalogReader
	provider *MockProvider
	orders   *MockOrderWriter
	storeID  uuid.UUID
}

func newFixture() *fixture {
	storeID := uuid.New()
	store := &domain.Store{ID: storeID, Name: "Tasker", Domain: "tasker.dk", Active: true}
	settings := &domain.StoreSettings{
		StoreID: storeID,
		Version: 1,
		Locale:  domain.LocaleSettings{Locale: "da-DK", Currency: "DKK"},
		Payment: domain.PaymentSettings{
			PublishableKey: "pk_test",
			SecretKey:      "sk_test",
			WebhookSecret:  "whsec_test",
		},
	}

	provider := &MockProvider{Session: &payment.CheckoutSession{ID: "cs_test_123", AmountTotal: 39900}}
	tenants := &MockTenantResolver{Tenant: &tenant.Tenant{Store: store, Settings: settings}}
	catalog := &MockCatalogReader{Entries: map[uuid.UUID]domain.CatalogEntry{}}
	orders := &MockOrderWriter{}

	return &fixture{
		service:  NewService(tenants, catalog, &MockProviderSource{Provider: provider}, orders),
		tenants:  tenants,
		catalog:  catalog,
		provider: provider,
		orders:   orders,
		storeID:  storeID,
	}
}

func (f *fixture) listItem(name, price string) RequestItem {
	entry := domain.CatalogEntry{
		StoreProductID: uuid.New(),
		ProductID:      uuid.New(),
		Name:           name,
		UnitPrice:      decimal.RequireFromString(price),
	}
	f.catalog.Entries[entry.StoreProductID] = entry

	return RequestItem{
		ProductID:      entry.ProductID,
		StoreProductID: entry.StoreProductID,
		Name:           name,
		Price:          entry.UnitPrice,
		Quantity:       1,
	}
}

func validRequest(items ...RequestItem) Request {
	return Request{
		CartID:     "cart-abc",
		Items:      items,
		SuccessURL: "https://tasker.dk/checkout/success",
		CancelURL:  "https://tasker.dk/checkout/cancel",
	}
}

func TestCreateSession_EmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.provider.Calls, "provider must not be called for an empty cart")
	assert.Zero(t, f.catalog.Calls)
}

func TestCreateSession_InvalidURLs(t *testing.T) {
	f := newFixture()
	item := f.listItem("Bag", "199.50")

	for _, raw := range []string{"", "not-a-url", "/relative/path", "ftp://tasker.dk/x"} {
		req := validRequest(item)
		req.SuccessURL = raw

		_, err := f.service.CreateSession(context.Background(), "tasker.dk", req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "url %q", raw)
	}
	assert.Zero(t, f.provider.Calls)
}

func TestCreateSession_MinorUnitConversion(t *testing.T) {
	f := newFixture()
	item := f.listItem("Bag", "199.5")
	item.Quantity = 2

	session, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)

	require.Equal(t, 1, f.provider.Calls)
	params := f.provider.Params[0]
	require.Len(t, params.Items, 1)
	assert.Equal(t, int64(19950), params.Items[0].UnitAmount)
	assert.Equal(t, int64(2), params.Items[0].Quantity)
	assert.Equal(t, "DKK", params.Currency)
}

func TestCreateSession_PriceTamperRejected(t *testing.T) {
	f := newFixture()
	item := f.listItem("Bag", "199.50")
	item.Price = decimal.RequireFromString("0.01")

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))

	assert.ErrorIs(t, err, ErrPriceMismatch)
	assert.Zero(t, f.provider.Calls)
	assert.Empty(t, f.orders.Created)
}

func TestCreateSession_UnknownProduct(t *testing.T) {
	f := newFixture()
	item := RequestItem{
		ProductID:      uuid.New(),
		StoreProductID: uuid.New(),
		Name:           "Ghost",
		Price:          decimal.RequireFromString("10"),
		Quantity:       1,
	}

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))

	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Zero(t, f.provider.Calls)
}

func TestCreateSession_IdempotencyKeyIsDeterministic(t *testing.T) {
	f := newFixture()
	item := f.listItem("Bag", "199.50")

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))
	require.NoError(t, err)
	_, err = f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))
	require.NoError(t, err)

	require.Equal(t, 2, f.provider.Calls)
	assert.NotEmpty(t, f.provider.Params[0].IdempotencyKey)
	assert.Equal(t, f.provider.Params[0].IdempotencyKey, f.provider.Params[1].IdempotencyKey)
}

func TestCreateSession_IdempotencyKeyChangesWithCart(t *testing.T) {
	f := newFixture()
	item := f.listItem("Bag", "199.50")

	first := validRequest(item)
	second := validRequest(item)
	second.CartID = "cart-other"

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", first)
	require.NoError(t, err)
	_, err = f.service.CreateSession(context.Background(), "tasker.dk", second)
	require.NoError(t, err)

	require.Equal(t, 2, f.provider.Calls)
	assert.NotEqual(t, f.provider.Params[0].IdempotencyKey, f.provider.Params[1].IdempotencyKey)
}

func TestCreateSession_PersistsOrder(t *testing.T) {
	f := newFixture()
	item := f.listItem("Bag", "199.50")
	item.Quantity = 2

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))
	require.NoError(t, err)

	require.Len(t, f.orders.Created, 1)
	order := f.orders.Created[0]
	assert.Equal(t, "cs_test_123", order.ProviderSessionID)
	assert.Equal(t, domain.OrderStatusSessionCreated, order.Status)
	assert.Equal(t, f.storeID, order.StoreID)
	assert.Equal(t, "DKK", order.Currency)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("399")),
		"expected total 399, got %s", order.TotalAmount)
}

func TestCreateSession_DuplicateSessionIsNotAnError(t *testing.T) {
	f := newFixture()
	f.orders.Err = repository.ErrDuplicateSession
	item := f.listItem("Bag", "199.50")

	session, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))

	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)
}

func TestCreateSession_ProviderFailure(t *testing.T) {
	f := newFixture()
	f.provider.Err = errors.New("stripe is down")
	item := f.listItem("Bag", "199.50")

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))

	assert.Error(t, err)
	assert.Empty(t, f.orders.Created)
}

func TestCreateSession_TenantNotFound(t *testing.T) {
	f := newFixture()
	f.tenants.Tenant = nil
	f.tenants.Err = repository.ErrStoreNotFound
	item := f.listItem("Bag", "199.50")

	_, err := f.service.CreateSession(context.Background(), "unknown.example", validRequest(item))

	assert.ErrorIs(t, err, repository.ErrStoreNotFound)
	assert.Zero(t, f.provider.Calls)
}

func TestCreateSession_SettingsNotReady(t *testing.T) {
	f := newFixture()
	f.tenants.Tenant.Settings.Payment.SecretKey = ""
	item := f.listItem("Bag", "199.50")

	_, err := f.service.CreateSession(context.Background(), "tasker.dk", validRequest(item))

	assert.ErrorIs(t, err, domain.ErrCheckoutNotReady)
	assert.Zero(t, f.provider.Calls)
}
