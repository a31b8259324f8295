package cart

import (
	"context"
	"errors"

	"github.com/cujumbu/multistore2/internal/domain"
)

// Storage is the durable key-value backing of the cart store. Every
// mutation is written through immediately; there is no batching.
type Storage interface {
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCartNotFound = errors.New("cart not found")
