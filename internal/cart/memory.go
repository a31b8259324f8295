package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cujumbu/multistore2/internal/domain"
)

// MemoryStorage implements Storage with in-memory storage, for local
// development and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.RLock()
	data, ok := m.carts[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCartNotFound
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (m *MemoryStorage) Save(_ context.Context, sessionID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.carts[sessionID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.carts, sessionID)
	m.mu.Unlock()
	return nil
}
