package payment

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/cujumbu/multistore2/internal/domain"
)

var ErrMissingSecretKey = errors.New("tenant has no payment secret key configured")

type cachedClient struct {
	secretKey string
	provider  Provider
}

// ClientCache owns one initialized provider client per tenant. A client is
// rebuilt when the tenant's secret key changes and can be dropped
// explicitly after a settings write.
type ClientCache struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]cachedClient
	build   func(secretKey string) Provider
}

func NewClientCache() *ClientCache {
	return &ClientCache{
		clients: make(map[uuid.UUID]cachedClient),
		build: func(secretKey string) Provider {
			return NewStripeProvider(secretKey)
		},
	}
}

// For returns the provider client for the store, building or rebuilding
// it as needed.
func (c *ClientCache) For(storeID uuid.UUID, settings *domain.StoreSettings) (Provider, error) {
	secretKey := settings.Payment.SecretKey
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}

	c.mu.RLock()
	cached, ok := c.clients[storeID]
	c.mu.RUnlock()
	if ok && cached.secretKey == secretKey {
		return cached.provider, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok = c.clients[storeID]; ok && cached.secretKey == secretKey {
		return cached.provider, nil
	}

	provider := c.build(secretKey)
	c.clients[storeID] = cachedClient{secretKey: secretKey, provider: provider}
	return provider, nil
}

// Invalidate drops the cached client for a store.
func (c *ClientCache) Invalidate(storeID uuid.UUID) {
	c.mu.Lock()
	delete(c.clients, storeID)
	c.mu.Unlock()
}
