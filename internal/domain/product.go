package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	BasePrice decimal.Decimal `json:"base_price"`
	SKU       string          `json:"sku,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StoreProduct links a product into a tenant's catalog, optionally
// overriding the base price.
type StoreProduct struct {
	ID        uuid.UUID        `json:"id"`
	StoreID   uuid.UUID        `json:"store_id"`
	ProductID uuid.UUID        `json:"product_id"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Active    bool             `json:"active"`
	Featured  bool             `json:"featured"`
}

// CatalogEntry is the authoritative price view used at checkout time:
// the store override if set, otherwise the product base price.
type CatalogEntry struct {
	StoreProductID uuid.UUID
	ProductID      uuid.UUID
	Name           string
	UnitPrice      decimal.Decimal
}
