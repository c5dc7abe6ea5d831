package pricing

import (
	"fmt"

	"swiftparcel/internal/config"
	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
)

const currency = "CAD"

// Engine computes itemized fares. It is pure: same inputs and config always
// produce the same snapshot, and the snapshot attached to an order at creation
// is never recomputed.
//
// All percentages are basis points and all amounts integer cents. Each
// component is rounded half-up exactly once from the exact bps product; the
// total is the exact sum of the rounded components, so no cumulative rounding
// drift can appear between viewers.
type Engine struct {
	cfg config.PricingConfig
}

func NewEngine(cfg config.PricingConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Quote prices a delivery from a pre-computed distance and driving duration.
func (e *Engine) Quote(distanceMeters, durationMinutes int64, size domain.PackageSize) (domain.FareSnapshot, error) {
	if !domain.ValidPackageSize(size) {
		return domain.FareSnapshot{}, apperrors.NewValidationError(
			fmt.Sprintf("unknown package size %q", size),
			apperrors.ValidationDetail{Field: "package.size", Message: "must be one of XS, S, M, L"},
		)
	}
	if durationMinutes <= 0 {
		return domain.FareSnapshot{}, apperrors.NewValidationError(
			"duration must be positive",
			apperrors.ValidationDetail{Field: "durationMinutes", Message: "must be greater than zero"},
		)
	}
	if distanceMeters < 0 {
		return domain.FareSnapshot{}, apperrors.NewValidationError(
			"distance must not be negative",
			apperrors.ValidationDetail{Field: "distanceMeters", Message: "must not be negative"},
		)
	}

	sizeBps, ok := e.cfg.SizeMultiplierBps[string(size)]
	if !ok {
		sizeBps = 10000
	}

	baseFare := roundBps(e.cfg.RatePerMinuteCents*durationMinutes, sizeBps)
	surcharge := roundBps(baseFare, e.surchargeBps(distanceMeters))
	courierFee := roundBps(baseFare, e.cfg.CourierFeeBps)
	carbonFee := roundBps(baseFare, e.cfg.CarbonFeeBps)
	serviceFee := roundBps(baseFare, e.cfg.ServiceFeeBps)

	preTax := baseFare + surcharge + courierFee + carbonFee + serviceFee
	gst := roundBps(preTax, e.cfg.GSTBps)

	return domain.FareSnapshot{
		BaseFare:          baseFare,
		DistanceSurcharge: surcharge,
		CourierFee:        courierFee,
		CarbonFee:         carbonFee,
		ServiceFee:        serviceFee,
		GST:               gst,
		Discount:          0,
		Total:             preTax + gst,
		Currency:          currency,
		DistanceMeters:    distanceMeters,
		DurationMinutes:   durationMinutes,
	}, nil
}

// QuoteStops derives distance and duration from the stop coordinates using
// the configured average driving speed, for callers without routing data.
func (e *Engine) QuoteStops(pickup, dropoff domain.Coordinate, size domain.PackageSize) (domain.FareSnapshot, error) {
	distanceMeters := int64(pickup.DistanceMeters(dropoff))
	durationMinutes := driveMinutes(distanceMeters, e.cfg.AverageSpeedKMH)
	return e.Quote(distanceMeters, durationMinutes, size)
}

// surchargeBps returns the distance-surcharge tier. Tiers are monotonic in
// distance by construction.
func (e *Engine) surchargeBps(distanceMeters int64) int64 {
	switch {
	case distanceMeters < e.cfg.TierShortMeters:
		return 0
	case distanceMeters < e.cfg.TierLongMeters:
		return e.cfg.MidTierBps
	default:
		return e.cfg.LongTierBps
	}
}

// driveMinutes converts a distance to whole driving minutes at the given
// average speed, rounding up and never returning less than one minute.
func driveMinutes(distanceMeters, speedKMH int64) int64 {
	if speedKMH <= 0 {
		speedKMH = 30
	}
	metersPerHour := speedKMH * 1000
	minutes := (distanceMeters*60 + metersPerHour - 1) / metersPerHour
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// roundBps multiplies an amount by bps/10000 with half-up rounding, in pure
// integer arithmetic. Amounts are assumed non-negative.
func roundBps(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}
