package pricing

import (
	"context"
	"fmt"
	"time"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
)

// Per-check rejection reasons, surfaced verbatim to the caller.
const (
	ReasonNotFound     = "coupon_not_found"
	ReasonInactive     = "coupon_inactive"
	ReasonNotStarted   = "coupon_not_started"
	ReasonExpired      = "coupon_expired"
	ReasonGlobalCap    = "coupon_usage_cap_reached"
	ReasonUserCap      = "coupon_user_cap_reached"
	ReasonBelowMinimum = "order_below_coupon_minimum"
)

type CouponLookup interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	UserRedemptions(ctx context.Context, code, userID string) (int64, error)
}

// Resolver validates a coupon against a fare and returns the discounted
// snapshot. Apply is side-effect-free and idempotent: redemption counts are
// only incremented by the order-creation flow once the order is durable.
type Resolver struct {
	lookup CouponLookup
	gstBps int64
	now    func() time.Time
}

func NewResolver(lookup CouponLookup, gstBps int64) *Resolver {
	return &Resolver{
		lookup: lookup,
		gstBps: gstBps,
		now:    time.Now,
	}
}

// Apply validates the coupon and recomputes the fare. The discount applies to
// the pre-tax subtotal, is floored so it never exceeds it, and GST is
// recomputed on the discounted subtotal.
func (r *Resolver) Apply(ctx context.Context, code, userID string, fare domain.FareSnapshot) (domain.FareSnapshot, *domain.CouponSnapshot, error) {
	coupon, err := r.lookup.FindByCode(ctx, code)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return fare, nil, rejected(code, ReasonNotFound)
		}
		return fare, nil, err
	}

	if !coupon.Active {
		return fare, nil, rejected(code, ReasonInactive)
	}

	now := r.now()
	if now.Before(coupon.ValidFrom) {
		return fare, nil, rejected(code, ReasonNotStarted)
	}
	if !coupon.WithinWindow(now) {
		return fare, nil, rejected(code, ReasonExpired)
	}

	if coupon.GloballyExhausted() {
		return fare, nil, rejected(code, ReasonGlobalCap)
	}

	if coupon.MaxPerUser > 0 {
		used, err := r.lookup.UserRedemptions(ctx, code, userID)
		if err != nil {
			return fare, nil, err
		}
		if used >= coupon.MaxPerUser {
			return fare, nil, rejected(code, ReasonUserCap)
		}
	}

	preTax := fare.PreTaxSubtotal()
	if preTax < coupon.MinOrderCents {
		return fare, nil, rejected(code, ReasonBelowMinimum)
	}

	discount := discountFor(coupon, fare, preTax)
	if discount > preTax {
		discount = preTax
	}
	if discount < 0 {
		discount = 0
	}

	discounted := fare
	discounted.Discount = discount
	discounted.GST = roundBps(preTax-discount, r.gstBps)
	discounted.Total = preTax - discount + discounted.GST

	return discounted, &domain.CouponSnapshot{Code: coupon.Code, Discount: discount}, nil
}

func discountFor(coupon *domain.Coupon, fare domain.FareSnapshot, preTax int64) int64 {
	switch coupon.Type {
	case domain.DiscountPercentage:
		return roundBps(preTax, coupon.Value)
	case domain.DiscountFixed:
		return coupon.Value
	case domain.DiscountFeeWaiver:
		return fare.CourierFee + fare.CarbonFee + fare.ServiceFee
	default:
		return 0
	}
}

func rejected(code, reason string) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("coupon %s rejected", code),
		apperrors.ValidationDetail{Field: "coupon", Message: reason},
	)
}
