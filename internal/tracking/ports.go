package tracking

import (
	"context"
	"time"

	"swiftparcel/internal/domain"
)

// LocationSource is the driver device abstraction. Sample fails when
// location permission is denied or the fix is unavailable; the publish loop
// treats that as a skipped tick, not a fatal error.
type LocationSource interface {
	Sample(ctx context.Context) (domain.LocationSample, error)
}

// OrderWatcher reports the authoritative order status so loops can stop the
// moment an order leaves the active set.
type OrderWatcher interface {
	Status(ctx context.Context, orderID string) (domain.Status, error)
}

type OrderFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByCode(ctx context.Context, code string) (*domain.Order, error)
}

type Route struct {
	DistanceMeters  int64  `json:"distanceMeters"`
	DurationMinutes int64  `json:"durationMinutes"`
	Polyline        string `json:"polyline,omitempty"`
}

// RouteService is the external routing collaborator. Calls are rationed by
// the orchestrator; a failure degrades the view, never blocks it.
type RouteService interface {
	Route(ctx context.Context, from, to domain.Coordinate) (*Route, error)
}

// View is the merged tracking snapshot every viewer renders from. Driver is
// nil while the driver has not shared a location yet; Route and ETA are nil
// whenever routing data is unavailable.
type View struct {
	Status      domain.Status          `json:"status"`
	StatusLabel string                 `json:"statusLabel"`
	Driver      *domain.LocationSample `json:"driver,omitempty"`
	Route       *Route                 `json:"route,omitempty"`
	ETA         *time.Time             `json:"eta,omitempty"`
}
