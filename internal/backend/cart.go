package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/google/uuid"
)

// CartRow is the raw cart_items row, before the product copy is joined in.
type CartRow struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
}

func (s *Store) ListCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	query := `
		SELECT ci.id, ci.quantity,
		       p.id, p.name, p.description, p.price, p.image_url, p.category
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, ci.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		err := rows.Scan(
			&it.ID,
			&it.Quantity,
			&it.Product.ID,
			&it.Product.Name,
			&it.Product.Description,
			&it.Product.Price,
			&it.Product.ImageURL,
			&it.Product.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (s *Store) FindCartItem(ctx context.Context, userID, productID string) (*CartRow, error) {
	query := `
		SELECT id, user_id, product_id, quantity
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	var row CartRow
	err := s.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&row.ID,
		&row.UserID,
		&row.ProductID,
		&row.Quantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}
	return &row, nil
}

func (s *Store) InsertCartItem(ctx context.Context, userID, productID string, quantity int) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), userID, productID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// UpdateCartItemQuantity updates a row found by FindCartItem, the
// find-then-update half of adding to an existing line.
func (s *Store) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	query := `UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3`

	res, err := s.db.ExecContext(ctx, query, quantity, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("update cart item quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCartItemQuantity addresses the row by owner and product, the shape the
// quantity stepper uses.
func (s *Store) SetCartItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	query := `UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE user_id = $3 AND product_id = $4`

	res, err := s.db.ExecContext(ctx, query, quantity, time.Now().UTC(), userID, productID)
	if err != nil {
		return fmt.Errorf("set cart item quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCartItem(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := s.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
