package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountFeeWaiver  DiscountType = "fee_waiver"
)

// Coupon is a discount rule. This core only validates and applies coupons;
// writes happen through an administrative collaborator.
//
// Value is basis points for percentage coupons and cents for fixed coupons;
// fee_waiver ignores it and waives the fixed fee components.
type Coupon struct {
	Code           string
	Type           DiscountType
	Value          int64
	ValidFrom      time.Time
	ValidUntil     time.Time
	Active         bool
	MaxRedemptions int64
	MaxPerUser     int64
	Redemptions    int64
	MinOrderCents  int64
}

func (c *Coupon) WithinWindow(now time.Time) bool {
	if now.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidUntil.IsZero() && now.After(c.ValidUntil) {
		return false
	}
	return true
}

func (c *Coupon) GloballyExhausted() bool {
	return c.MaxRedemptions > 0 && c.Redemptions >= c.MaxRedemptions
}
