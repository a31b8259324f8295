package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cujumbu/multistore2/internal/domain"
)

// CreateOrder persists the order row written at session-creation time.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (id, store_id, provider_session_id, total_amount, currency, status, items, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		order.StoreID,
		order.ProviderSessionID,
		order.TotalAmount.String(),
		order.Currency,
		order.Status,
		itemsJSON)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := `SELECT id, store_id, provider_session_id, payment_intent_id, total_amount, currency, status, items, created_at, updated_at, paid_at, captured_at
	          FROM orders WHERE provider_session_id = $1`
	return r.scanOrder(r.db.QueryRowContext(ctx, query, sessionID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order           domain.Order
		paymentIntentID sql.NullString
		rawAmount       string
		itemsJSON       []byte
		paidAt          sql.NullTime
		capturedAt      sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.StoreID,
		&order.ProviderSessionID,
		&paymentIntentID,
		&rawAmount,
		&order.Currency,
		&order.Status,
		&itemsJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
		&paidAt,
		&capturedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	order.PaymentIntentID = paymentIntentID.String
	if order.TotalAmount, err = decimal.NewFromString(rawAmount); err != nil {
		return nil, fmt.Errorf("parse order amount %q: %w", rawAmount, err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}
	if capturedAt.Valid {
		order.CapturedAt = &capturedAt.Time
	}
	return &order, nil
}

// MarkOrderPaid applies a checkout-completed event. The processed-event
// ledger, the order transition and the fulfillment outbox row are written
// in one transaction, so a provider retry of the same event id is a no-op.
func (r *Repository) MarkOrderPaid(ctx context.Context, eventID, sessionID, paymentIntentID string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	recorded, err := recordEvent(ctx, tx, eventID, domain.EventCheckoutSessionCompleted, payload)
	if err != nil {
		return err
	}
	if !recorded {
		return ErrEventAlreadyProcessed
	}

	query := `SELECT id, store_id, provider_session_id, payment_intent_id, total_amount, currency, status, items, created_at, updated_at, paid_at, captured_at
	          FROM orders WHERE provider_session_id = $1 FOR UPDATE`
	order, err := r.scanOrder(tx.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, ErrOrderNotFound) {
		// Keep the event recorded so a redelivery stays a no-op, but
		// surface that there was nothing to reconcile.
		if e2 := tx.Commit(); e2 != nil {
			return fmt.Errorf("commit tx: %w", e2)
		}
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusPaid) {
		// Already paid via another event for the same session; record the
		// event without fulfilling twice.
		if e2 := tx.Commit(); e2 != nil {
			return fmt.Errorf("commit tx: %w", e2)
		}
		return nil
	}

	update := `UPDATE orders
	           SET status = $2, payment_intent_id = $3, paid_at = NOW(), updated_at = NOW()
	           WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, order.ID, domain.OrderStatusPaid, paymentIntentID); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	outboxPayload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"store_id":     order.StoreID,
		"session_id":   order.ProviderSessionID,
		"total_amount": order.TotalAmount,
		"currency":     order.Currency,
		"items":        order.Items,
		"paid_at":      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	if err := insertOutboxEvent(ctx, tx, order.ID.String(), "order.paid", outboxPayload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// MarkOrderCaptured applies a payment-capture confirmation for the order
// matching the payment intent.
func (r *Repository) MarkOrderCaptured(ctx context.Context, eventID, paymentIntentID string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	recorded, err := recordEvent(ctx, tx, eventID, domain.EventPaymentIntentSucceeded, payload)
	if err != nil {
		return err
	}
	if !recorded {
		return ErrEventAlreadyProcessed
	}

	query := `UPDATE orders SET captured_at = NOW(), updated_at = NOW()
	          WHERE payment_intent_id = $1 AND status = $2`
	if _, err := tx.ExecContext(ctx, query, paymentIntentID, domain.OrderStatusPaid); err != nil {
		return fmt.Errorf("update order capture: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateOrderStatus moves an order to a new status, enforcing the
// state machine.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("query order status: %w", err)
	}

	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, next)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, orderID, next); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// recordEvent appends to the processed-event ledger. Returns false when
// the event id was already recorded.
func recordEvent(ctx context.Context, tx *sql.Tx, eventID, eventType string, payload []byte) (bool, error) {
	query := `INSERT INTO payment_events (id, event_type, payload, received_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (id) DO NOTHING`
	result, err := tx.ExecContext(ctx, query, eventID, eventType, payload)
	if err != nil {
		return false, fmt.Errorf("record payment event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record payment event: %w", err)
	}
	return affected == 1, nil
}
