package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
)

// InsertOrder writes the order header only. Items follow in a separate call
// and there is no compensating delete if they fail; the partial-failure risk
// is accepted and mirrors the hosted-backend contract.
func (s *Store) InsertOrder(ctx context.Context, o *domain.Order) error {
	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	var billingJSON []byte
	if o.BillingAddress != nil {
		billingJSON, err = json.Marshal(o.BillingAddress)
		if err != nil {
			return fmt.Errorf("failed to marshal billing address: %w", err)
		}
	}

	query := `
		INSERT INTO orders (id, user_id, status, total_amount, discount_amount, shipping_cost,
		                    coupon_code, shipping_address, billing_address, payment_method,
		                    payment_status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`

	_, insertErr := s.db.ExecContext(ctx, query,
		o.ID,
		o.UserID,
		string(o.Status),
		o.TotalAmount,
		o.DiscountAmount,
		o.ShippingCost,
		nullString(o.CouponCode),
		string(shippingJSON),
		nullString(string(billingJSON)),
		nullString(o.PaymentMethod),
		string(o.PaymentStatus),
		nullString(o.Notes),
		time.Now().UTC())
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (s *Store) InsertOrderItems(ctx context.Context, items []domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	for _, it := range items {
		_, err := s.db.ExecContext(ctx, query,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, now)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, status, total_amount, discount_amount, shipping_cost,
		       coupon_code, shipping_address, billing_address, payment_method,
		       payment_status, notes, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range orders {
		items, err := s.listOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	res, err := s.db.ExecContext(ctx, query, string(status), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) listOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func scanOrder(rows *sql.Rows) (*domain.Order, error) {
	var o domain.Order
	var couponCode, billingJSON, paymentMethod, notes sql.NullString
	var shippingJSON string

	err := rows.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&o.DiscountAmount,
		&o.ShippingCost,
		&couponCode,
		&shippingJSON,
		&billingJSON,
		&paymentMethod,
		&o.PaymentStatus,
		&notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if err := json.Unmarshal([]byte(shippingJSON), &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}
	if billingJSON.Valid && billingJSON.String != "" {
		var addr domain.Address
		if err := json.Unmarshal([]byte(billingJSON.String), &addr); err != nil {
			return nil, fmt.Errorf("failed to unmarshal billing address: %w", err)
		}
		o.BillingAddress = &addr
	}
	o.CouponCode = couponCode.String
	o.PaymentMethod = paymentMethod.String
	o.Notes = notes.String

	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
