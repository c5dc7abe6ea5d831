package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"swiftparcel/internal/domain"
)

type routeCache struct {
	at    domain.Coordinate
	route *Route
	eta   *time.Time
}

// Orchestrator composes the authoritative status, the latest location sample
// and routing data into one consistent View. Routes are only recomputed when
// the driver has moved materially since the last routing call, so a 5s poll
// cadence does not turn into a 5s route-service bill.
//
// Every piece of the view is optional except status: a missing sample or a
// failed route call degrades the view, never hides the status.
type Orchestrator struct {
	store     Store
	routes    RouteService
	threshold float64
	logger    *zap.Logger

	mu     sync.Mutex
	cached map[string]routeCache
}

func NewOrchestrator(store Store, routes RouteService, thresholdMeters float64, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		routes:    routes,
		threshold: thresholdMeters,
		logger:    logger,
		cached:    make(map[string]routeCache),
	}
}

func (o *Orchestrator) Snapshot(ctx context.Context, order *domain.Order) View {
	view := View{
		Status:      order.Status,
		StatusLabel: order.Status.Label(),
	}

	if !order.Status.IsActive() {
		o.forget(order.ID)
		return view
	}

	sample, err := o.store.Latest(ctx, order.ID)
	if err != nil {
		o.logger.Warn("fetching driver location",
			zap.String("orderId", order.ID),
			zap.Error(err))
		return view
	}
	if sample == nil {
		// Driver has not enabled sharing yet.
		return view
	}

	view.Driver = sample
	view.Route, view.ETA = o.routeFor(ctx, order, sample)
	return view
}

func (o *Orchestrator) routeFor(ctx context.Context, order *domain.Order, sample *domain.LocationSample) (*Route, *time.Time) {
	o.mu.Lock()
	cached, ok := o.cached[order.ID]
	o.mu.Unlock()

	if ok && sample.Coordinate.DistanceMeters(cached.at) < o.threshold {
		return cached.route, cached.eta
	}

	route, err := o.routes.Route(ctx, sample.Coordinate, order.Dropoff.Coordinate)
	if err != nil {
		o.logger.Warn("route recomputation failed",
			zap.String("orderId", order.ID),
			zap.Error(err))
		if ok {
			return cached.route, cached.eta
		}
		return nil, nil
	}

	var eta *time.Time
	if route != nil {
		t := sample.CapturedAt.Add(time.Duration(route.DurationMinutes) * time.Minute)
		eta = &t
	}

	o.mu.Lock()
	o.cached[order.ID] = routeCache{at: sample.Coordinate, route: route, eta: eta}
	o.mu.Unlock()

	return route, eta
}

func (o *Orchestrator) forget(orderID string) {
	o.mu.Lock()
	delete(o.cached, orderID)
	o.mu.Unlock()
}
