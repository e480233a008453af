package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) ListWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	query := `
		SELECT w.id, w.created_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.category
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at, w.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var items []domain.WishlistItem
	for rows.Next() {
		var it domain.WishlistItem
		err := rows.Scan(
			&it.ID,
			&it.CreatedAt,
			&it.Product.ID,
			&it.Product.Name,
			&it.Product.Description,
			&it.Product.Price,
			&it.Product.ImageURL,
			&it.Product.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (s *Store) InsertWishlistItem(ctx context.Context, userID, productID string) error {
	// ON CONFLICT keeps the one-item-per-product invariant without a
	// read-before-write round trip.
	query := `
		INSERT INTO wishlists (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), userID, productID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`

	if _, err := s.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	return nil
}

func (s *Store) ClearWishlist(ctx context.Context, userID string) error {
	query := `DELETE FROM wishlists WHERE user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
