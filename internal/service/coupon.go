package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/backend"
	"github.com/eluvju/wapp-shop-express/internal/domain"
	"go.uber.org/zap"
)

type CouponBackend interface {
	GetActiveCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	ListActiveCoupons(ctx context.Context) ([]domain.Coupon, error)
	SetCouponUsedCount(ctx context.Context, couponID string, usedCount int) error
}

// Validation is the outcome of checking a code against an order amount.
// Invalid results carry a user-facing message, never a Go error.
type Validation struct {
	Valid    bool           `json:"valid"`
	Coupon   *domain.Coupon `json:"coupon,omitempty"`
	Discount float64        `json:"discount,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type CouponService struct {
	backend CouponBackend
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	coupons []domain.Coupon
}

func NewCouponService(b CouponBackend, log *zap.Logger) *CouponService {
	return &CouponService{
		backend: b,
		log:     log,
		now:     time.Now,
	}
}

// Validate runs the checks in a fixed order: presence, existence, activity
// window, minimum order amount, usage cap.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount float64) Validation {
	if strings.TrimSpace(code) == "" {
		return Validation{Error: "coupon code is required"}
	}

	coupon, err := s.backend.GetActiveCouponByCode(ctx, code)
	if errors.Is(err, backend.ErrNotFound) {
		return Validation{Error: "coupon not found or inactive"}
	}
	if err != nil {
		s.log.Warn("coupon lookup failed", zap.String("code", code), zap.Error(err))
		return Validation{Error: "could not validate coupon"}
	}

	now := s.now()
	if now.Before(coupon.ValidFrom) {
		return Validation{Error: "coupon is not valid yet"}
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return Validation{Error: "coupon has expired"}
	}

	if orderAmount < coupon.MinimumOrderAmount {
		return Validation{Error: fmt.Sprintf("minimum order amount is %.2f", coupon.MinimumOrderAmount)}
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return Validation{Error: "coupon usage limit reached"}
	}

	return Validation{
		Valid:    true,
		Coupon:   coupon,
		Discount: Discount(coupon, orderAmount),
	}
}

// Discount dispatches on the coupon kind. A fixed-amount discount never
// exceeds the order total; free shipping is worth zero here because the
// shipping line is adjusted elsewhere.
func Discount(coupon *domain.Coupon, orderAmount float64) float64 {
	switch coupon.Kind {
	case domain.CouponPercentage:
		return orderAmount * coupon.Value / 100
	case domain.CouponFixedAmount:
		if coupon.Value > orderAmount {
			return orderAmount
		}
		return coupon.Value
	case domain.CouponFreeShipping:
		return 0
	default:
		return 0
	}
}

// Apply validates and, on success, bumps used_count by one. The increment is
// a read-then-write on the value Validate fetched, so concurrent
// applications from other sessions can lose an update.
func (s *CouponService) Apply(ctx context.Context, code string, orderAmount float64) Validation {
	validation := s.Validate(ctx, code, orderAmount)
	if !validation.Valid || validation.Coupon == nil {
		return validation
	}

	if err := s.backend.SetCouponUsedCount(ctx, validation.Coupon.ID, validation.Coupon.UsedCount+1); err != nil {
		s.log.Warn("applying coupon failed", zap.String("code", code), zap.Error(err))
		return Validation{Error: "could not apply coupon"}
	}

	return validation
}

// Active returns the cached active coupon list, loading it on first use.
func (s *CouponService) Active(ctx context.Context) ([]domain.Coupon, error) {
	s.mu.Lock()
	cached := s.coupons
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return s.Refresh(ctx)
}

func (s *CouponService) Refresh(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.backend.ListActiveCoupons(ctx)
	if err != nil {
		s.log.Warn("loading coupons failed", zap.Error(err))
		return nil, fmt.Errorf("load coupons: %w", err)
	}
	if coupons == nil {
		coupons = []domain.Coupon{}
	}

	s.mu.Lock()
	s.coupons = coupons
	s.mu.Unlock()
	return coupons, nil
}
