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

const reviewColumns = `id, product_id, user_id, rating, title, comment,
       is_verified_purchase, is_approved, helpful_count, created_at, updated_at`

func (s *Store) ListApprovedReviews(ctx context.Context, productID string) ([]domain.ProductReview, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM product_reviews
		WHERE product_id = $1 AND is_approved = TRUE
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.ProductReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reviews, nil
}

func (s *Store) GetReview(ctx context.Context, reviewID string) (*domain.ProductReview, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM product_reviews
		WHERE id = $1
	`

	r, err := scanReview(s.db.QueryRowContext(ctx, query, reviewID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query review: %w", err)
	}
	return r, nil
}

// UpsertReview keeps at most one review per (product, user); a repeat
// submission replaces rating, title and comment in place.
func (s *Store) UpsertReview(ctx context.Context, r *domain.ProductReview) error {
	query := `
		INSERT INTO product_reviews (id, product_id, user_id, rating, title, comment,
		                             is_verified_purchase, is_approved, helpful_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $9)
		ON CONFLICT (product_id, user_id) DO UPDATE SET
			rating = excluded.rating,
			title = excluded.title,
			comment = excluded.comment,
			updated_at = excluded.updated_at
	`

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, query,
		id, r.ProductID, r.UserID, r.Rating,
		nullString(r.Title), nullString(r.Comment),
		r.IsVerifiedPurchase, r.IsApproved, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// SetHelpfulCount writes an absolute value read moments earlier by the
// caller. Two interleaved increments can settle on +1; see the service test
// pinning that behavior.
func (s *Store) SetHelpfulCount(ctx context.Context, reviewID string, helpfulCount int) error {
	query := `UPDATE product_reviews SET helpful_count = $1, updated_at = $2 WHERE id = $3`

	res, err := s.db.ExecContext(ctx, query, helpfulCount, time.Now().UTC(), reviewID)
	if err != nil {
		return fmt.Errorf("update helpful_count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReview(row rowScanner) (*domain.ProductReview, error) {
	var r domain.ProductReview
	var title, comment sql.NullString

	err := row.Scan(
		&r.ID,
		&r.ProductID,
		&r.UserID,
		&r.Rating,
		&title,
		&comment,
		&r.IsVerifiedPurchase,
		&r.IsApproved,
		&r.HelpfulCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Title = title.String
	r.Comment = comment.String
	return &r, nil
}
