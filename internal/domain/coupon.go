package domain

import "time"

type CouponKind string

const (
	CouponPercentage   CouponKind = "percentage"
	CouponFixedAmount  CouponKind = "fixed_amount"
	CouponFreeShipping CouponKind = "free_shipping"
)

// Coupon codes are unique case-insensitively; lookups upper-case the input.
type Coupon struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Kind               CouponKind `json:"type"`
	Value              float64    `json:"value"`
	MinimumOrderAmount float64    `json:"minimum_order_amount"`
	UsageLimit         *int       `json:"usage_limit,omitempty"`
	UsedCount          int        `json:"used_count"`
	IsActive           bool       `json:"is_active"`
	ValidFrom          time.Time  `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
