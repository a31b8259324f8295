package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cujumbu/multistore2/internal/domain"
)

// GetStoreByDomain resolves exactly one active store and its settings.
// Inactive stores are treated the same as missing ones.
func (r *Repository) GetStoreByDomain(ctx context.Context, storeDomain string) (*domain.Store, *domain.StoreSettings, error) {
	query := `SELECT s.id, s.name, s.domain, s.description, s.logo_url, s.active, s.owner_id, s.created_at, s.updated_at,
	                 ss.id, ss.version, ss.theme, ss.locale, ss.payment, ss.updated_at
	          FROM stores s
	          JOIN store_settings ss ON ss.store_id = s.id
	          WHERE s.domain = $1 AND s.active = true`

	var (
		store                              domain.Store
		settings                           domain.StoreSettings
		description, logoURL               sql.NullString
		themeJSON, localeJSON, paymentJSON []byte
	)
	err := r.db.QueryRowContext(ctx, query, storeDomain).Scan(
		&store.ID,
		&store.Name,
		&store.Domain,
		&description,
		&logoURL,
		&store.Active,
		&store.OwnerID,
		&store.CreatedAt,
		&store.UpdatedAt,
		&settings.ID,
		&settings.Version,
		&themeJSON,
		&localeJSON,
		&paymentJSON,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query store by domain: %w", err)
	}

	store.Description = description.String
	store.LogoURL = logoURL.String
	settings.StoreID = store.ID

	if err := json.Unmarshal(themeJSON, &settings.Theme); err != nil {
		return nil, nil, fmt.Errorf("unmarshal theme settings: %w", err)
	}
	if err := json.Unmarshal(localeJSON, &settings.Locale); err != nil {
		return nil, nil, fmt.Errorf("unmarshal locale settings: %w", err)
	}
	if err := json.Unmarshal(paymentJSON, &settings.Payment); err != nil {
		return nil, nil, fmt.Errorf("unmarshal payment settings: %w", err)
	}

	return &store, &settings, nil
}

// CreateStore inserts a store together with its default settings record in
// one transaction, so a store never exists without settings.
func (r *Repository) CreateStore(ctx context.Context, store *domain.Store) (*domain.StoreSettings, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	storeQuery := `INSERT INTO stores (id, name, domain, description, logo_url, active, owner_id, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`
	_, err = tx.ExecContext(ctx, storeQuery,
		store.ID,
		store.Name,
		store.Domain,
		store.Description,
		store.LogoURL,
		store.Active,
		store.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}

	settings := domain.DefaultSettings(store.ID)
	if err := r.insertSettings(ctx, tx, &settings); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &settings, nil
}

func (r *Repository) insertSettings(ctx context.Context, tx *sql.Tx, settings *domain.StoreSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	themeJSON, localeJSON, paymentJSON, err := marshalSettings(settings)
	if err != nil {
		return err
	}

	query := `INSERT INTO store_settings (id, store_id, version, theme, locale, payment, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())`
	if _, err := tx.ExecContext(ctx, query,
		settings.ID,
		settings.StoreID,
		settings.Version,
		themeJSON,
		localeJSON,
		paymentJSON); err != nil {
		return fmt.Errorf("insert store settings: %w", err)
	}
	return nil
}

// UpdateStoreSettings validates and writes the settings record, bumping
// its version. Concurrent writers race last-write-wins.
func (r *Repository) UpdateStoreSettings(ctx context.Context, settings *domain.StoreSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	themeJSON, localeJSON, paymentJSON, err := marshalSettings(settings)
	if err != nil {
		return err
	}

	query := `UPDATE store_settings
	          SET version = version + 1, theme = $2, locale = $3, payment = $4, updated_at = NOW()
	          WHERE store_id = $1
	          RETURNING version, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		settings.StoreID,
		themeJSON,
		localeJSON,
		paymentJSON).Scan(&settings.Version, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStoreNotFound
	}
	if err != nil {
		return fmt.Errorf("update store settings: %w", err)
	}
	return nil
}

func marshalSettings(settings *domain.StoreSettings) (theme, locale, payment []byte, err error) {
	if theme, err = json.Marshal(settings.Theme); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal theme settings: %w", err)
	}
	if locale, err = json.Marshal(settings.Locale); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal locale settings: %w", err)
	}
	if payment, err = json.Marshal(settings.Payment); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal payment settings: %w", err)
	}
	return theme, locale, payment, nil
}
