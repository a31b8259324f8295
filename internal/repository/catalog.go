package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cujumbu/multistore2/internal/domain"
)

// StoreProductPrices returns the authoritative catalog prices for the
// given store products: the store override when set, the product base
// price otherwise. Inactive catalog entries are excluded.
func (r *Repository) StoreProductPrices(ctx context.Context, storeID uuid.UUID, storeProductIDs []uuid.UUID) (map[uuid.UUID]domain.CatalogEntry, error) {
	query := `SELECT sp.id, sp.product_id, p.name, COALESCE(sp.price, p.base_price)
	          FROM store_products sp
	          JOIN products p ON p.id = sp.product_id
	          WHERE sp.store_id = $1 AND sp.active = true AND sp.id = ANY($2)`

	ids := make([]string, 0, len(storeProductIDs))
	for _, id := range storeProductIDs {
		ids = append(ids, id.String())
	}

	rows, err := r.db.QueryContext(ctx, query, storeID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query store product prices: %w", err)
	}
	defer rows.Close()

	entries := make(map[uuid.UUID]domain.CatalogEntry, len(storeProductIDs))
	for rows.Next() {
		var (
			entry    domain.CatalogEntry
			rawPrice string
		)
		if err := rows.Scan(&entry.StoreProductID, &entry.ProductID, &entry.Name, &rawPrice); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		entry.UnitPrice, err = decimal.NewFromString(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("parse catalog price %q: %w", rawPrice, err)
		}
		entries[entry.StoreProductID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// AddProduct inserts a product and lists it in a store's catalog, used by
// fixtures and the admin seeding path.
func (r *Repository) AddProduct(ctx context.Context, product *domain.Product, listing *domain.StoreProduct) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	productQuery := `INSERT INTO products (id, name, slug, base_price, sku, image_url, created_at, updated_at)
	                 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	if _, err := tx.ExecContext(ctx, productQuery,
		product.ID,
		product.Name,
		product.Slug,
		product.BasePrice.String(),
		product.SKU,
		product.ImageURL); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	var overridePrice interface{}
	if listing.Price != nil {
		overridePrice = listing.Price.String()
	}
	listingQuery := `INSERT INTO store_products (id, store_id, product_id, price, active, featured)
	                 VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, listingQuery,
		listing.ID,
		listing.StoreID,
		listing.ProductID,
		overridePrice,
		listing.Active,
		listing.Featured); err != nil {
		return fmt.Errorf("insert store product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
