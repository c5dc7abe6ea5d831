package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
	"swiftparcel/internal/testutil"
)

func newTestOrder(now time.Time) *domain.Order {
	id := uuid.New().String()
	return &domain.Order{
		ID:            id,
		Code:          "SP-" + id[:8],
		CustomerID:    uuid.New().String(),
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		Pickup: domain.Stop{
			Address:    "100 Main St",
			Coordinate: domain.Coordinate{Lat: 49.2827, Lng: -123.1207},
		},
		Dropoff: domain.Stop{
			Address:    "200 Oak Ave",
			Coordinate: domain.Coordinate{Lat: 49.3100, Lng: -123.1000},
		},
		Package: domain.Package{
			Size:  domain.SizeM,
			Photo: &domain.EvidencePhoto{Ref: "photos/item.jpg", UploadedAt: now},
		},
		Pricing: domain.FareSnapshot{
			BaseFare:          880,
			DistanceSurcharge: 44,
			CourierFee:        18,
			CarbonFee:         8,
			ServiceFee:        9,
			GST:               48,
			Total:             1007,
			Currency:          "CAD",
			DistanceMeters:    7200,
			DurationMinutes:   8,
		},
		Timeline:  domain.Timeline{CreatedAt: now},
		UpdatedAt: now,
	}
}

func TestOrderRepository_InsertAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newTestOrder(now)
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Code != order.Code || got.Status != domain.StatusPending {
		t.Errorf("got code=%s status=%s, want %s/pending", got.Code, got.Status, order.Code)
	}
	if got.Pricing != order.Pricing {
		t.Errorf("pricing snapshot changed through storage:\n got  %+v\n want %+v", got.Pricing, order.Pricing)
	}
	if got.Package.Photo == nil || got.Package.Photo.Ref != "photos/item.jpg" {
		t.Errorf("item photo not preserved: %+v", got.Package.Photo)
	}
	if got.Driver != nil || got.Coupon != nil {
		t.Errorf("unset optionals must come back nil: driver=%+v coupon=%+v", got.Driver, got.Coupon)
	}

	byCode, err := repo.FindByCode(ctx, order.Code)
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if byCode.ID != order.ID {
		t.Errorf("find by code returned %s, want %s", byCode.ID, order.ID)
	}
}

func TestOrderRepository_FindMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New().String())
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestOrderRepository_ClaimOnceOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newTestOrder(now)
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}

	first := domain.Driver{ID: uuid.New().String(), Name: "Priya Sharma"}
	if err := repo.Claim(ctx, order.ID, first, time.Time{}, now); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	second := domain.Driver{ID: uuid.New().String(), Name: "Marcus Webb"}
	err := repo.Claim(ctx, order.ID, second, time.Time{}, now)
	if _, ok := apperrors.IsConflictError(err); !ok {
		t.Fatalf("second claim must conflict, got %v", err)
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != domain.StatusAssigned {
		t.Errorf("status = %s, want assigned", got.Status)
	}
	if got.Driver == nil || got.Driver.ID != first.ID {
		t.Errorf("assigned driver = %+v, want the first claimant", got.Driver)
	}
	if got.Timeline.AssignedAt == nil {
		t.Error("assigned_at must be stamped")
	}
}

func TestOrderRepository_ClaimExpiredPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newTestOrder(now.Add(-2 * time.Hour))
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}

	driver := domain.Driver{ID: uuid.New().String(), Name: "Priya Sharma"}
	err := repo.Claim(ctx, order.ID, driver, now.Add(-time.Hour), now)
	if _, ok := apperrors.IsConflictError(err); !ok {
		t.Errorf("claiming an expired pending order must conflict, got %v", err)
	}
}

func TestOrderRepository_UpdateStatusGuarded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newTestOrder(now)
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}
	driver := domain.Driver{ID: uuid.New().String(), Name: "Priya Sharma"}
	if err := repo.Claim(ctx, order.ID, driver, time.Time{}, now); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := repo.UpdateStatus(ctx, order.ID, domain.StatusAssigned, domain.StatusPickedUp, now); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// Stale expectation: the order is picked_up now, not assigned.
	err := repo.UpdateStatus(ctx, order.ID, domain.StatusAssigned, domain.StatusPickedUp, now)
	if _, ok := apperrors.IsConflictError(err); !ok {
		t.Errorf("stale guarded update must conflict, got %v", err)
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Timeline.PickedUpAt == nil {
		t.Error("picked_up_at must be stamped")
	}
}

func TestOrderRepository_CommitEvidence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newTestOrder(now)
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.CommitEvidence(ctx, order.ID, domain.SlotPickup, "photos/pickup.jpg", now); err != nil {
		t.Fatalf("commit evidence: %v", err)
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	photo := got.Evidence(domain.SlotPickup)
	if photo == nil || photo.Ref != "photos/pickup.jpg" {
		t.Errorf("pickup evidence = %+v, want committed reference", photo)
	}

	err = repo.CommitEvidence(ctx, uuid.New().String(), domain.SlotPickup, "photos/x.jpg", now)
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		t.Errorf("committing against a missing order must be not-found, got %v", err)
	}
}

func TestOrderRepository_UpdatePaymentStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	order := newTestOrder(now)
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPaid, now); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.PaymentStatus != domain.PaymentPaid {
		t.Errorf("payment status = %s, want paid", got.PaymentStatus)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("payment flip must not touch delivery status, got %s", got.Status)
	}

	err = repo.UpdatePaymentStatus(ctx, uuid.New().String(), domain.PaymentPaid, now)
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		t.Errorf("flipping a missing order must be not-found, got %v", err)
	}
}

func TestCouponRepository_Roundtrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	testutil.SetupTestTables(t, db)

	repo := NewMySQLCouponRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := repo.FindByCode(ctx, "NOPE")
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		t.Fatalf("unknown coupon must be not-found, got %v", err)
	}

	insert := `
		INSERT INTO coupons (code, discount_type, value, valid_from, valid_until, active,
		                     max_redemptions, max_per_user, redemptions, min_order_cents)
		VALUES ('SAVE10', 'percentage', 1000, ?, NULL, 1, 100, 1, 0, 500)
	`
	if _, err := db.Exec(insert, now.Add(-time.Hour)); err != nil {
		t.Fatalf("seeding coupon: %v", err)
	}

	coupon, err := repo.FindByCode(ctx, "SAVE10")
	if err != nil {
		t.Fatalf("find coupon: %v", err)
	}
	if coupon.Type != domain.DiscountPercentage || coupon.Value != 1000 {
		t.Errorf("coupon = %+v, want percentage/1000", coupon)
	}

	customerID := uuid.New().String()
	count, err := repo.UserRedemptions(ctx, "SAVE10", customerID)
	if err != nil || count != 0 {
		t.Fatalf("user redemptions = %d, %v; want 0, nil", count, err)
	}

	if err := repo.IncrementRedemption(ctx, "SAVE10", customerID); err != nil {
		t.Fatalf("increment redemption: %v", err)
	}

	count, err = repo.UserRedemptions(ctx, "SAVE10", customerID)
	if err != nil || count != 1 {
		t.Errorf("user redemptions = %d, %v; want 1, nil", count, err)
	}

	coupon, err = repo.FindByCode(ctx, "SAVE10")
	if err != nil {
		t.Fatalf("re-find coupon: %v", err)
	}
	if coupon.Redemptions != 1 {
		t.Errorf("global redemptions = %d, want 1", coupon.Redemptions)
	}
}
