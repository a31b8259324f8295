package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cujumbu/multistore2/internal/domain"
)

// Store maintains the pre-payment line-item list for one browsing
// session. Every mutation recomputes the total and is written through to
// storage before returning. Concurrent writers on the same session race
// last-write-wins; there is no merge.
type Store struct {
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Get returns the cart for the session, or a fresh empty cart if none
// has been persisted yet.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.storage.Load(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		return domain.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// AddItem merges by product: if the product is already in the cart its
// quantity is incremented by 1 and the incoming quantity is ignored.
// Otherwise the item is appended with a freshly generated id.
func (s *Store) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if existing := cart.FindByProductID(item.ProductID); existing != nil {
		existing.Quantity++
	} else {
		item.ID = uuid.NewString()
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		cart.Items = append(cart.Items, item)
	}

	return s.commit(ctx, sessionID, cart)
}

// RemoveItem removes the line with the given id. A missing id is a no-op,
// not an error.
func (s *Store) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	cart.Items = items

	return s.commit(ctx, sessionID, cart)
}

// UpdateQuantity replaces the quantity of the line with the given id.
// Quantities below 1 are ignored; removal goes through RemoveItem.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if quantity < 1 {
		return cart, nil
	}

	if item := cart.FindByID(itemID); item != nil {
		item.Quantity = quantity
	}

	return s.commit(ctx, sessionID, cart)
}

// Clear resets the cart to empty.
func (s *Store) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart := domain.NewCart()
	if err := s.storage.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *Store) commit(ctx context.Context, sessionID string, cart *domain.Cart) (*domain.Cart, error) {
	cart.Recalculate()
	cart.UpdatedAt = time.Now().UTC()
	if err := s.storage.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
