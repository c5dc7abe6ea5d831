package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ViewSink receives each merged snapshot the poll loop produces.
type ViewSink func(View)

// Poller is the viewer-side loop: on every tick it re-reads the order,
// composes the merged view through the orchestrator, and hands it to the
// sink. Location data is only fetched while the order is active; once the
// order reaches a terminal status the final view is delivered and the loop
// exits, issuing no further calls.
type Poller struct {
	finder   OrderFinder
	orch     *Orchestrator
	orderID  string
	interval time.Duration
	sink     ViewSink
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

func NewPoller(finder OrderFinder, orch *Orchestrator, orderID string, interval time.Duration, sink ViewSink, logger *zap.Logger) *Poller {
	return &Poller{
		finder:   finder,
		orch:     orch,
		orderID:  orderID,
		interval: interval,
		sink:     sink,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-ticker.C:
			order, err := p.finder.FindByID(ctx, p.orderID)
			if err != nil {
				// A missed tick is not user-fatal; try again on
				// the next one.
				p.logger.Warn("poll tick failed",
					zap.String("orderId", p.orderID),
					zap.Error(err))
				continue
			}

			p.sink(p.orch.Snapshot(ctx, order))

			if order.Status.IsTerminal() {
				p.logger.Info("order reached terminal status, polling stopped",
					zap.String("orderId", p.orderID),
					zap.String("status", string(order.Status)))
				return nil
			}
		}
	}
}

// Stop ends the loop from outside; safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}
