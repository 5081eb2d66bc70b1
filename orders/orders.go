// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/danielhkuo/riot-network/models"
)

var ErrNotFound = errors.New("order not found")

// allowedFrom lists the statuses an order may move out of to reach a
// target. COMPLETED is terminal except for refunds and reversals.
var allowedFrom = map[string][]string{
	models.OrderApproved:  {models.OrderCreated},
	models.OrderCompleted: {models.OrderCreated, models.OrderApproved},
	models.OrderCanceled:  {models.OrderCreated, models.OrderApproved, models.OrderCompleted},
}

// Store reads and transitions rows of the orders table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const orderColumns = `id, user_id, email, event_id, provider, provider_order_id, amount, currency, status, ip_hash, created_at`

// Insert writes a new order row. ID must already be set.
func (s *Store) Insert(ctx context.Context, o models.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, email, event_id, provider, provider_order_id, amount, currency, status, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, o.ID, o.UserID, o.Email, o.EventID, o.Provider, o.ProviderOrderID, o.Amount, o.Currency, o.Status, o.IPHash)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// ByProviderID finds an order by the payment provider's order id.
func (s *Store) ByProviderID(ctx context.Context, providerOrderID string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE provider_order_id = $1`, providerOrderID)
	return scanOrder(row)
}

// ByID finds an order by our own id.
func (s *Store) ByID(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// Transition moves the order with the given provider id to status. It
// reports false when the order was not in a status that may move there,
// including when it is already there.
func (s *Store) Transition(ctx context.Context, providerOrderID, status string) (bool, error) {
	from, ok := allowedFrom[status]
	if !ok {
		return false, fmt.Errorf("no transitions into %q", status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE provider_order_id = $2 AND status = ANY($3)
	`, status, providerOrderID, pq.Array(from))
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// Cancel marks an order canceled by our id (admin action).
func (s *Store) Cancel(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = 'CANCELED', updated_at = now()
		WHERE id = $1 AND status <> 'CANCELED'
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// Pending lists provider orders still CREATED or APPROVED after olderThan.
func (s *Store) Pending(ctx context.Context, olderThan time.Duration, limit int) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status IN ('CREATED', 'APPROVED')
		  AND provider_order_id IS NOT NULL
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending orders: %w", err)
	}
	return scanOrders(rows)
}

// Recent lists the newest orders first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	return scanOrders(rows)
}

// ForUser lists a user's orders, matched by id or email, newest first.
func (s *Store) ForUser(ctx context.Context, userID, email string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id::text = $1 OR lower(email) = lower($2)
		ORDER BY created_at DESC
	`, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}
	return scanOrders(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Email, &o.EventID, &o.Provider, &o.ProviderOrderID,
		&o.Amount, &o.Currency, &o.Status, &o.IPHash, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	defer rows.Close()

	result := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return result, nil
}
