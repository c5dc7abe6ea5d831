package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"swiftparcel/internal/domain"
)

// Publisher is the driver-side loop: every interval it samples the device
// location and pushes it to the store, replacing the previous sample. The
// loop halts the instant the order leaves the active set, the context ends,
// or Stop is called; after that it issues no further calls of any kind.
//
// A failed tick is logged and skipped; the next tick runs on schedule. There
// is no backoff that could stall updates during an active delivery.
type Publisher struct {
	store    Store
	source   LocationSource
	watcher  OrderWatcher
	orderID  string
	driverID string
	interval time.Duration
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

func NewPublisher(store Store, source LocationSource, watcher OrderWatcher, orderID, driverID string, interval time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:    store,
		source:   source,
		watcher:  watcher,
		orderID:  orderID,
		driverID: driverID,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-ticker.C:
			done, err := p.tick(ctx)
			if err != nil {
				p.logger.Warn("publish tick failed",
					zap.String("orderId", p.orderID),
					zap.Error(err))
				continue
			}
			if done {
				return nil
			}
		}
	}
}

// Stop ends the loop from outside; safe to call more than once.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Publisher) tick(ctx context.Context) (done bool, err error) {
	status, err := p.watcher.Status(ctx, p.orderID)
	if err != nil {
		return false, err
	}
	if !status.IsActive() {
		// Best effort: drop the last sample so no stale position
		// outlives the delivery. The TTL covers us if this fails.
		if err := p.store.Clear(ctx, p.orderID); err != nil {
			p.logger.Warn("clearing final location sample",
				zap.String("orderId", p.orderID),
				zap.Error(err))
		}
		p.logger.Info("order left active set, location sharing stopped",
			zap.String("orderId", p.orderID),
			zap.String("status", string(status)))
		return true, nil
	}

	sample, err := p.source.Sample(ctx)
	if err != nil {
		// Location permission revoked or no fix; skip this tick.
		return false, err
	}

	sample.OrderID = p.orderID
	sample.DriverID = p.driverID
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now().UTC()
	}

	return false, p.store.Publish(ctx, sample)
}

// statusWatcher adapts an order finder to the watcher interface.
type statusWatcher struct {
	finder OrderFinder
}

func NewStatusWatcher(finder OrderFinder) OrderWatcher {
	return &statusWatcher{finder: finder}
}

func (w *statusWatcher) Status(ctx context.Context, orderID string) (domain.Status, error) {
	order, err := w.finder.FindByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}
