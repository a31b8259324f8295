package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Store is one tenant of the platform, identified by its domain.
type Store struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Domain      string    `json:"domain"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Active      bool      `json:"active"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ThemeSettings struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	HeadingFont    string `json:"heading_font"`
	BodyFont       string `json:"body_font"`
}

type LocaleSettings struct {
	Locale     string `json:"locale"`
	Currency   string `json:"currency"`
	DateFormat string `json:"date_format"`
}

type PaymentSettings struct {
	PublishableKey string `json:"publishable_key"`
	SecretKey      string `json:"secret_key"`
	WebhookSecret  string `json:"webhook_secret"`
}

// StoreSettings is the versioned per-tenant configuration record, exactly
// one per store. Version increments on every write.
type StoreSettings struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Version   int             `json:"version"`
	Theme     ThemeSettings   `json:"theme"`
	Locale    LocaleSettings  `json:"locale"`
	Payment   PaymentSettings `json:"payment"`
	UpdatedAt time.Time       `json:"updated_at"`
}

var (
	ErrSettingsInvalid    = errors.New("store settings are invalid")
	ErrCheckoutNotReady   = errors.New("store settings are not ready for checkout")
	currencyCodePattern   = regexp.MustCompile(`^[A-Z]{3}$`)
	defaultLocaleSettings = LocaleSettings{Locale: "da-DK", Currency: "DKK", DateFormat: "DD-MM-YYYY"}
)

// DefaultSettings returns the tenant defaults applied at store creation.
func DefaultSettings(storeID uuid.UUID) StoreSettings {
	return StoreSettings{
		ID:      uuid.New(),
		StoreID: storeID,
		Version: 1,
		Theme: ThemeSettings{
			PrimaryColor:   "#1a1a1a",
			SecondaryColor: "#f5f5f5",
			AccentColor:    "#c8a45d",
			HeadingFont:    "serif",
			BodyFont:       "sans-serif",
		},
		Locale: defaultLocaleSettings,
	}
}

// Validate is applied on every settings write.
func (s StoreSettings) Validate() error {
	if s.StoreID == uuid.Nil {
		return fmt.Errorf("%w: missing store id", ErrSettingsInvalid)
	}
	if s.Version < 1 {
		return fmt.Errorf("%w: version must be >= 1", ErrSettingsInvalid)
	}
	if s.Locale.Locale == "" {
		return fmt.Errorf("%w: missing locale", ErrSettingsInvalid)
	}
	if !currencyCodePattern.MatchString(s.Locale.Currency) {
		return fmt.Errorf("%w: currency %q is not an ISO 4217 code", ErrSettingsInvalid, s.Locale.Currency)
	}
	return nil
}

// CheckoutReady reports whether a checkout session can be initiated with
// these settings. Currency and payment credentials are sourced from here,
// never hard-coded.
func (s StoreSettings) CheckoutReady() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Payment.SecretKey == "" {
		return fmt.Errorf("%w: missing payment secret key", ErrCheckoutNotReady)
	}
	if s.Payment.WebhookSecret == "" {
		return fmt.Errorf("%w: missing webhook secret", ErrCheckoutNotReady)
	}
	return nil
}
