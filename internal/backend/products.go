package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eluvju/wapp-shop-express/internal/domain"
)

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, category
		FROM products
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, category
		FROM products
		WHERE id = $1
	`

	var p domain.Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Category,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

// SearchProductsByName is a case-insensitive substring match, used by the
// autocomplete suggestions.
func (s *Store) SearchProductsByName(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, category
		FROM products
		WHERE LOWER(name) LIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, strings.ToLower(term), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.ImageURL,
			&p.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// SeedProduct inserts a catalog entry. The storefront itself never calls
// this; it exists for fixtures and local bootstrapping.
func (s *Store) SeedProduct(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, image_url, category)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Category)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}
