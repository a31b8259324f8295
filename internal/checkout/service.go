package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cujumbu/multistore2/internal/domain"
	"github.com/cujumbu/multistore2/internal/payment"
	"github.com/cujumbu/multistore2/internal/repository"
	"github.com/cujumbu/multistore2/internal/tenant"
)

type RequestItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	StoreProductID uuid.UUID       `json:"store_product_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Image          string          `json:"image,omitempty"`
}

// Request is a cart snapshot submitted for checkout. CartID identifies
// the client session; it feeds the idempotency key so a double-submit of
// the same cart collapses into one provider session.
type Request struct {
	CartID     string        `json:"cart_id,omitempty"`
	Items      []RequestItem `json:"items"`
	SuccessURL string        `json:"success_url"`
	CancelURL  string        `json:"cancel_url"`
}

type TenantResolver interface {
	Resolve(ctx context.Context, host string) (*tenant.Tenant, error)
}

type CatalogReader interface {
	StoreProductPrices(ctx context.Context, storeID uuid.UUID, storeProductIDs []uuid.UUID) (map[uuid.UUID]domain.CatalogEntry, error)
}

type ProviderSource interface {
	For(storeID uuid.UUID, settings *domain.StoreSettings) (payment.Provider, error)
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

// Service converts a cart snapshot into a provider-hosted payment
// session. Prices are recomputed from the tenant's catalog; the
// client-submitted price is only a tamper check. Currency and provider
// credentials come from the resolved tenant's settings.
type Service struct {
	tenants TenantResolver
	catalog CatalogReader
	clients ProviderSource
	orders  OrderWriter
}

func NewService(tenants TenantResolver, catalog CatalogReader, clients ProviderSource, orders OrderWriter) *Service {
	return &Service{
		tenants: tenants,
		catalog: catalog,
		clients: clients,
		orders:  orders,
	}
}

func (s *Service) CreateSession(ctx context.Context, host string, req Request) (*payment.CheckoutSession, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	resolved, err := s.tenants.Resolve(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}
	store, settings := resolved.Store, resolved.Settings

	if err := settings.CheckoutReady(); err != nil {
		return nil, err
	}

	provider, err := s.clients.For(store.ID, settings)
	if err != nil {
		return nil, fmt.Errorf("payment client for store %s: %w", store.ID, err)
	}

	storeProductIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		storeProductIDs = append(storeProductIDs, item.StoreProductID)
	}
	entries, err := s.catalog.StoreProductPrices(ctx, store.ID, storeProductIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog prices: %w", err)
	}

	lineItems := make([]payment.LineItem, 0, len(req.Items))
	orderItems := make([]domain.OrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, item := range req.Items {
		entry, ok := entries[item.StoreProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, item.StoreProductID)
		}
		if !item.Price.Equal(entry.UnitPrice) {
			return nil, fmt.Errorf("%w: %s sent %s, catalog has %s",
				ErrPriceMismatch, item.StoreProductID, item.Price, entry.UnitPrice)
		}

		lineItems = append(lineItems, payment.LineItem{
			Name:       entry.Name,
			Image:      item.Image,
			UnitAmount: payment.ToMinorUnits(entry.UnitPrice),
			Quantity:   int64(item.Quantity),
		})
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:      entry.ProductID,
			StoreProductID: entry.StoreProductID,
			Name:           entry.Name,
			UnitPrice:      entry.UnitPrice,
			Quantity:       item.Quantity,
		})
		total = total.Add(entry.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	session, err := provider.CreateCheckoutSession(ctx, payment.SessionParams{
		Currency:       settings.Locale.Currency,
		Items:          lineItems,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		IdempotencyKey: idempotencyKey(req.CartID, req.Items, lineItems),
	})
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:                uuid.New(),
		StoreID:           store.ID,
		ProviderSessionID: session.ID,
		TotalAmount:       total,
		Currency:          settings.Locale.Currency,
		Status:            domain.OrderStatusSessionCreated,
		Items:             orderItems,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		// A duplicate session id means the provider collapsed a retried
		// submission onto an existing session that is already recorded.
		if errors.Is(err, repository.ErrDuplicateSession) {
			return session, nil
		}
		log.Printf("order record for session %s failed: %v", session.ID, err)
		return nil, fmt.Errorf("record order: %w", err)
	}

	return session, nil
}

func validate(req Request) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be >= 1", ErrInvalidRequest)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", ErrInvalidRequest)
		}
		if item.StoreProductID == uuid.Nil {
			return fmt.Errorf("%w: missing store product id", ErrInvalidRequest)
		}
	}
	for _, raw := range []string{req.SuccessURL, req.CancelURL} {
		if !isAbsoluteURL(raw) {
			return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidRequest, raw)
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// idempotencyKey derives a deterministic token from the cart identity and
// the authoritative line items, so retrying the same cart reuses the same
// provider session.
func idempotencyKey(cartID string, items []RequestItem, lines []payment.LineItem) string {
	h := sha256.New()
	io.WriteString(h, cartID)
	for i, line := range lines {
		fmt.Fprintf(h, "\n%s|%d|%d", items[i].StoreProductID, line.UnitAmount, line.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
