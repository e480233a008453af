package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func newCouponFixture() (*fakeCouponBackend, *CouponService, time.Time) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	backend := &fakeCouponBackend{coupons: []domain.Coupon{
		{
			ID:        "c1",
			Code:      "SAVE10",
			Kind:      domain.CouponPercentage,
			Value:     10,
			IsActive:  true,
			ValidFrom: now.Add(-24 * time.Hour),
		},
		{
			ID:                 "c2",
			Code:               "FLAT500",
			Kind:               domain.CouponFixedAmount,
			Value:              500,
			MinimumOrderAmount: 50,
			IsActive:           true,
			ValidFrom:          now.Add(-24 * time.Hour),
		},
		{
			ID:        "c3",
			Code:      "FREESHIP",
			Kind:      domain.CouponFreeShipping,
			Value:     0,
			IsActive:  true,
			ValidFrom: now.Add(-24 * time.Hour),
		},
		{
			ID:        "c4",
			Code:      "SOON",
			Kind:      domain.CouponPercentage,
			Value:     5,
			IsActive:  true,
			ValidFrom: now.Add(24 * time.Hour),
		},
		{
			ID:         "c5",
			Code:       "GONE",
			Kind:       domain.CouponPercentage,
			Value:      5,
			IsActive:   true,
			ValidFrom:  now.Add(-48 * time.Hour),
			ValidUntil: timePtr(now.Add(-time.Hour)),
		},
		{
			ID:         "c6",
			Code:       "CAPPED",
			Kind:       domain.CouponPercentage,
			Value:      5,
			IsActive:   true,
			ValidFrom:  now.Add(-24 * time.Hour),
			UsageLimit: intPtr(3),
			UsedCount:  3,
		},
	}}

	svc := NewCouponService(backend, zap.NewNop())
	svc.now = fixedClock(now)
	return backend, svc, now
}

func TestCouponValidate(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newCouponFixture()

	tests := []struct {
		name    string
		code    string
		amount  float64
		wantErr string
	}{
		{"empty code", "  ", 100, "coupon code is required"},
		{"unknown code", "NOPE", 100, "coupon not found or inactive"},
		{"not started", "SOON", 100, "coupon is not valid yet"},
		{"expired", "GONE", 100, "coupon has expired"},
		{"below minimum", "FLAT500", 49.999, "minimum order amount is 50.00"},
		{"usage cap reached", "CAPPED", 100, "coupon usage limit reached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := svc.Validate(ctx, tt.code, tt.amount)
			assert.False(t, v.Valid)
			assert.Equal(t, tt.wantErr, v.Error)
			assert.Nil(t, v.Coupon)
		})
	}
}

func TestCouponValidateCodeIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newCouponFixture()

	v := svc.Validate(ctx, "save10", 200)
	require.True(t, v.Valid)
	assert.Equal(t, "SAVE10", v.Coupon.Code)
	assert.InDelta(t, 20, v.Discount, 1e-9)
}

func TestCouponDiscount(t *testing.T) {
	tests := []struct {
		name   string
		coupon domain.Coupon
		amount float64
		want   float64
	}{
		{"percentage", domain.Coupon{Kind: domain.CouponPercentage, Value: 10}, 200, 20},
		{"fixed below total", domain.Coupon{Kind: domain.CouponFixedAmount, Value: 30}, 200, 30},
		{"fixed capped at total", domain.Coupon{Kind: domain.CouponFixedAmount, Value: 500}, 100, 100},
		{"free shipping", domain.Coupon{Kind: domain.CouponFreeShipping, Value: 15}, 200, 0},
		{"unknown kind", domain.Coupon{Kind: "mystery", Value: 15}, 200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Discount(&tt.coupon, tt.amount), 1e-9)
		})
	}
}

func TestCouponApplyBumpsUsedCount(t *testing.T) {
	ctx := context.Background()
	backend, svc, _ := newCouponFixture()

	v := svc.Apply(ctx, "SAVE10", 100)
	require.True(t, v.Valid)
	assert.InDelta(t, 10, v.Discount, 1e-9)

	stored, err := backend.GetActiveCouponByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestCouponApplyInvalidDoesNotBump(t *testing.T) {
	ctx := context.Background()
	backend, svc, _ := newCouponFixture()

	v := svc.Apply(ctx, "GONE", 100)
	assert.False(t, v.Valid)

	stored, err := backend.GetActiveCouponByCode(ctx, "GONE")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestCouponApplyWriteFailure(t *testing.T) {
	ctx := context.Background()
	backend, svc, _ := newCouponFixture()
	backend.setErr = errors.New("write refused")

	v := svc.Apply(ctx, "SAVE10", 100)
	assert.False(t, v.Valid)
	assert.Equal(t, "could not apply coupon", v.Error)
}

func TestCouponActiveCachesList(t *testing.T) {
	ctx := context.Background()
	backend, svc, _ := newCouponFixture()

	first, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, first, 6)

	backend.mu.Lock()
	backend.coupons = nil
	backend.mu.Unlock()

	cached, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 6)

	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, refreshed)
}
