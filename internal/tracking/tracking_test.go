package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
)

const testInterval = 5 * time.Millisecond

type fakeStore struct {
	mu          sync.Mutex
	latest      *domain.LocationSample
	publishes   int
	latestCalls int
	clears      int
	publishErr  error
	latestErr   error
}

func (s *fakeStore) Publish(ctx context.Context, sample domain.LocationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishes++
	if s.publishErr != nil {
		return s.publishErr
	}
	s.latest = &sample
	return nil
}

func (s *fakeStore) Latest(ctx context.Context, orderID string) (*domain.LocationSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestCalls++
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.latest, nil
}

func (s *fakeStore) Clear(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.latest = nil
	return nil
}

func (s *fakeStore) counts() (publishes, latestCalls, clears int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishes, s.latestCalls, s.clears
}

// scriptedWatcher serves a fixed status sequence, then keeps repeating the
// last entry.
type scriptedWatcher struct {
	mu       sync.Mutex
	statuses []domain.Status
	idx      int
	calls    int
}

func (w *scriptedWatcher) Status(ctx context.Context, orderID string) (domain.Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	s := w.statuses[w.idx]
	if w.idx < len(w.statuses)-1 {
		w.idx++
	}
	return s, nil
}

func (w *scriptedWatcher) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type fakeSource struct {
	mu  sync.Mutex
	err error
	seq int
}

func (s *fakeSource) Sample(ctx context.Context) (domain.LocationSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.LocationSample{}, s.err
	}
	s.seq++
	return domain.LocationSample{
		Coordinate: domain.Coordinate{Lat: 49.28 + float64(s.seq)*0.0001, Lng: -123.12},
		CapturedAt: time.Now().UTC(),
	}, nil
}

func TestPublisher_StopsWhenOrderLeavesActiveSet(t *testing.T) {
	store := &fakeStore{}
	watcher := &scriptedWatcher{statuses: []domain.Status{
		domain.StatusAssigned,
		domain.StatusInTransit,
		domain.StatusDelivered,
	}}
	pub := NewPublisher(store, &fakeSource{}, watcher, "order-1", "driver-1", testInterval, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- pub.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publisher returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not terminate after the order left the active set")
	}

	publishes, _, clears := store.counts()
	if publishes != 2 {
		t.Errorf("publishes = %d, want 2 (one per active tick)", publishes)
	}
	if clears != 1 {
		t.Errorf("clears = %d, want 1", clears)
	}

	// Hard requirement: zero further calls of any kind after termination.
	statusCalls := watcher.callCount()
	time.Sleep(10 * testInterval)
	laterPublishes, _, _ := store.counts()
	if laterPublishes != publishes || watcher.callCount() != statusCalls {
		t.Error("publisher kept issuing calls after termination")
	}
}

func TestPublisher_StopEndsLoop(t *testing.T) {
	store := &fakeStore{}
	watcher := &scriptedWatcher{statuses: []domain.Status{domain.StatusAssigned}}
	pub := NewPublisher(store, &fakeSource{}, watcher, "order-1", "driver-1", testInterval, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- pub.Run(context.Background()) }()

	time.Sleep(4 * testInterval)
	pub.Stop()
	pub.Stop() // idempotent

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not end the loop")
	}
}

func TestPublisher_SkipsFailedTicksAndContinues(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{err: errors.New("location permission denied")}
	watcher := &scriptedWatcher{statuses: []domain.Status{domain.StatusAssigned}}
	pub := NewPublisher(store, source, watcher, "order-1", "driver-1", testInterval, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	time.Sleep(5 * testInterval)
	// Permission granted; the loop must still be alive and publish.
	source.mu.Lock()
	source.err = nil
	source.mu.Unlock()
	time.Sleep(5 * testInterval)

	cancel()
	<-done

	publishes, _, _ := store.counts()
	if publishes == 0 {
		t.Error("loop must survive failed ticks and publish once the source recovers")
	}
}

type scriptedFinder struct {
	mu     sync.Mutex
	orders []*domain.Order
	idx    int
}

func (f *scriptedFinder) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[f.idx]
	if f.idx < len(f.orders)-1 {
		f.idx++
	}
	if o == nil {
		return nil, apperrors.NewNotFoundError("order not found")
	}
	return o, nil
}

func (f *scriptedFinder) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	return f.FindByID(ctx, code)
}

type fakeRoutes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *fakeRoutes) Route(ctx context.Context, from, to domain.Coordinate) (*Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &Route{DistanceMeters: 4200, DurationMinutes: 12}, nil
}

func (r *fakeRoutes) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func trackedOrder(status domain.Status) *domain.Order {
	return &domain.Order{
		ID:      "order-1",
		Code:    "SP-ABCD1234",
		Status:  status,
		Dropoff: domain.Stop{Address: "200 Oak Ave", Coordinate: domain.Coordinate{Lat: 49.31, Lng: -123.10}},
	}
}

func TestPoller_StopsAtTerminalStatus(t *testing.T) {
	store := &fakeStore{}
	store.latest = &domain.LocationSample{
		OrderID:    "order-1",
		Coordinate: domain.Coordinate{Lat: 49.29, Lng: -123.11},
		CapturedAt: time.Now().UTC(),
	}
	finder := &scriptedFinder{orders: []*domain.Order{
		trackedOrder(domain.StatusInTransit),
		trackedOrder(domain.StatusInTransit),
		trackedOrder(domain.StatusDelivered),
	}}
	orch := NewOrchestrator(store, &fakeRoutes{}, 50, zap.NewNop())

	var mu sync.Mutex
	var views []View
	sink := func(v View) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	}

	poller := NewPoller(finder, orch, "order-1", testInterval, sink, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- poller.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not terminate at terminal status")
	}

	_, latestCalls, _ := store.counts()
	if latestCalls != 2 {
		t.Errorf("location fetches = %d, want 2 (active ticks only)", latestCalls)
	}

	time.Sleep(10 * testInterval)
	_, laterCalls, _ := store.counts()
	if laterCalls != latestCalls {
		t.Error("poller kept fetching locations after termination")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(views) != 3 {
		t.Fatalf("views delivered = %d, want 3 including the final one", len(views))
	}
	last := views[len(views)-1]
	if last.Status != domain.StatusDelivered {
		t.Errorf("final view status = %s, want delivered", last.Status)
	}
	if last.Driver != nil {
		t.Error("terminal view must not carry a driver position")
	}
}

func TestPoller_SurvivesFailedTicks(t *testing.T) {
	store := &fakeStore{}
	finder := &scriptedFinder{orders: []*domain.Order{
		nil, // first tick fails
		trackedOrder(domain.StatusAssigned),
		trackedOrder(domain.StatusDelivered),
	}}
	orch := NewOrchestrator(store, &fakeRoutes{}, 50, zap.NewNop())

	var mu sync.Mutex
	count := 0
	sink := func(View) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	poller := NewPoller(finder, orch, "order-1", testInterval, sink, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- poller.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not recover from a failed tick")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 2 {
		t.Errorf("views delivered = %d, want 2", count)
	}
}

func TestOrchestrator_NotYetShared(t *testing.T) {
	store := &fakeStore{}
	orch := NewOrchestrator(store, &fakeRoutes{}, 50, zap.NewNop())

	view := orch.Snapshot(context.Background(), trackedOrder(domain.StatusAssigned))
	if view.Status != domain.StatusAssigned || view.StatusLabel == "" {
		t.Errorf("view = %+v, want assigned with label", view)
	}
	if view.Driver != nil || view.Route != nil || view.ETA != nil {
		t.Errorf("no sample published yet, view must carry no location data: %+v", view)
	}
}

func TestOrchestrator_RecomputesRouteOnlyOnMaterialMove(t *testing.T) {
	store := &fakeStore{}
	routes := &fakeRoutes{}
	orch := NewOrchestrator(store, routes, 50, zap.NewNop())
	order := trackedOrder(domain.StatusInTransit)

	at := func(lat float64) *domain.LocationSample {
		return &domain.LocationSample{
			OrderID:    order.ID,
			Coordinate: domain.Coordinate{Lat: lat, Lng: -123.11},
			CapturedAt: time.Now().UTC(),
		}
	}

	store.latest = at(49.2900)
	first := orch.Snapshot(context.Background(), order)
	if first.Route == nil || first.ETA == nil {
		t.Fatalf("first snapshot must compute a route, got %+v", first)
	}
	if routes.callCount() != 1 {
		t.Fatalf("route calls = %d, want 1", routes.callCount())
	}

	// ~11m north: below the 50m threshold, cached route reused.
	store.latest = at(49.2901)
	second := orch.Snapshot(context.Background(), order)
	if routes.callCount() != 1 {
		t.Errorf("route calls = %d after immaterial move, want still 1", routes.callCount())
	}
	if second.Route == nil {
		t.Error("cached route must still be served")
	}

	// ~110m north: material move, route recomputed.
	store.latest = at(49.2911)
	orch.Snapshot(context.Background(), order)
	if routes.callCount() != 2 {
		t.Errorf("route calls = %d after material move, want 2", routes.callCount())
	}
}

func TestOrchestrator_ToleratesRouteFailure(t *testing.T) {
	store := &fakeStore{}
	store.latest = &domain.LocationSample{
		OrderID:    "order-1",
		Coordinate: domain.Coordinate{Lat: 49.29, Lng: -123.11},
		CapturedAt: time.Now().UTC(),
	}
	routes := &fakeRoutes{err: errors.New("routing service down")}
	orch := NewOrchestrator(store, routes, 50, zap.NewNop())

	view := orch.Snapshot(context.Background(), trackedOrder(domain.StatusInTransit))
	if view.Driver == nil {
		t.Error("a failed route must not hide the driver position")
	}
	if view.Route != nil || view.ETA != nil {
		t.Error("failed route must leave route and eta nil")
	}
	if view.Status != domain.StatusInTransit {
		t.Error("status must always be present")
	}
}

func TestSession_CloseStopsAllLoops(t *testing.T) {
	store := &fakeStore{}
	watcher := &scriptedWatcher{statuses: []domain.Status{domain.StatusAssigned}}
	pub := NewPublisher(store, &fakeSource{}, watcher, "order-1", "driver-1", testInterval, zap.NewNop())

	session := NewSession(context.Background())
	session.Start(pub)

	time.Sleep(4 * testInterval)
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	publishes, _, _ := store.counts()
	time.Sleep(10 * testInterval)
	later, _, _ := store.counts()
	if later != publishes {
		t.Error("loop outlived its session")
	}
}
