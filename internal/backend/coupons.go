package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
)

const couponColumns = `id, code, name, description, type, value, minimum_order_amount,
       usage_limit, used_count, is_active, valid_from, valid_until, created_at, updated_at`

// GetActiveCouponByCode matches case-insensitively; inactive coupons are
// invisible to the storefront.
func (s *Store) GetActiveCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE UPPER(code) = $1 AND is_active = TRUE
	`

	row := s.db.QueryRowContext(ctx, query, strings.ToUpper(code))
	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return c, nil
}

func (s *Store) ListActiveCoupons(ctx context.Context) ([]domain.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE is_active = TRUE
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return coupons, nil
}

// SetCouponUsedCount writes an absolute value. The caller computes it from a
// previously read coupon, so concurrent applications across sessions can
// lose an increment; fixing that needs an atomic counter in the storage
// contract, not a client-side lock.
func (s *Store) SetCouponUsedCount(ctx context.Context, couponID string, usedCount int) error {
	query := `UPDATE coupons SET used_count = $1, updated_at = $2 WHERE id = $3`

	res, err := s.db.ExecContext(ctx, query, usedCount, time.Now().UTC(), couponID)
	if err != nil {
		return fmt.Errorf("update coupon used_count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedCoupon exists for fixtures; coupons are managed server-side.
func (s *Store) SeedCoupon(ctx context.Context, c *domain.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, name, description, type, value, minimum_order_amount,
		                     usage_limit, used_count, is_active, valid_from, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Code, c.Name, c.Description, string(c.Kind), c.Value, c.MinimumOrderAmount,
		c.UsageLimit, c.UsedCount, c.IsActive, c.ValidFrom, c.ValidUntil, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var c domain.Coupon
	var usageLimit sql.NullInt64
	var validUntil sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Name,
		&c.Description,
		&c.Kind,
		&c.Value,
		&c.MinimumOrderAmount,
		&usageLimit,
		&c.UsedCount,
		&c.IsActive,
		&c.ValidFrom,
		&validUntil,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if usageLimit.Valid {
		v := int(usageLimit.Int64)
		c.UsageLimit = &v
	}
	if validUntil.Valid {
		t := validUntil.Time
		c.ValidUntil = &t
	}
	return &c, nil
}
