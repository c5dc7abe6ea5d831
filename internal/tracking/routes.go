package tracking

import (
	"context"
	"math"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
)

// StraightLineRouter estimates routes from great-circle distance and an
// average urban speed. It stands in wherever no external routing provider is
// configured; the view shape is identical either way.
type StraightLineRouter struct {
	speedKMH float64
}

func NewStraightLineRouter(speedKMH float64) *StraightLineRouter {
	return &StraightLineRouter{speedKMH: speedKMH}
}

func (r *StraightLineRouter) Route(ctx context.Context, from, to domain.Coordinate) (*Route, error) {
	if r.speedKMH <= 0 {
		return nil, apperrors.NewInternalError("router misconfigured: non-positive average speed", nil)
	}

	distance := from.DistanceMeters(to)
	minutes := int64(math.Ceil(distance / 1000 / r.speedKMH * 60))
	if minutes < 1 {
		minutes = 1
	}

	return &Route{
		DistanceMeters:  int64(math.Round(distance)),
		DurationMinutes: minutes,
	}, nil
}
