package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusSessionCreated OrderStatus = "SESSION_CREATED"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusFulfilled      OrderStatus = "FULFILLED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the order state machine allows moving
// from s to next: SESSION_CREATED -> PAID -> (FULFILLED | CANCELLED).
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusSessionCreated:
		return next == OrderStatusPaid || next == OrderStatusCancelled
	case OrderStatusPaid:
		return next == OrderStatusFulfilled || next == OrderStatusCancelled
	default:
		return false
	}
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	StoreProductID uuid.UUID       `json:"store_product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
}

// Order is the durable record of one checkout attempt. It is created when
// the provider session is created and advanced by webhook events.
type Order struct {
	ID                uuid.UUID
	StoreID           uuid.UUID
	ProviderSessionID string
	PaymentIntentID   string
	TotalAmount       decimal.Decimal
	Currency          string
	Status            OrderStatus
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time
	CapturedAt        *time.Time
}
