package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"swiftparcel/internal/domain"
	"swiftparcel/internal/errors"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

const orderColumns = `
	id, code, customer_id, status, payment_status,
	driver_id, driver_name, driver_phone,
	pickup_address, pickup_lat, pickup_lng, pickup_contact_name, pickup_contact_phone,
	pickup_photo_ref, pickup_photo_at,
	dropoff_address, dropoff_lat, dropoff_lng, dropoff_contact_name, dropoff_contact_phone,
	dropoff_photo_ref, dropoff_photo_at,
	package_size, package_weight_grams, package_declared_value, item_photo_ref, item_photo_at,
	base_fare, distance_surcharge, courier_fee, carbon_fee, service_fee, gst, discount, total,
	currency, distance_meters, duration_minutes,
	coupon_code, coupon_discount,
	created_at, assigned_at, picked_up_at, in_transit_at, delivered_at, cancelled_at, updated_at`

func (r *MySQLOrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, code, customer_id, status, payment_status,
			pickup_address, pickup_lat, pickup_lng, pickup_contact_name, pickup_contact_phone,
			dropoff_address, dropoff_lat, dropoff_lng, dropoff_contact_name, dropoff_contact_phone,
			package_size, package_weight_grams, package_declared_value, item_photo_ref, item_photo_at,
			base_fare, distance_surcharge, courier_fee, carbon_fee, service_fee, gst, discount, total,
			currency, distance_meters, duration_minutes,
			coupon_code, coupon_discount,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var itemRef sql.NullString
	var itemAt sql.NullTime
	if o.Package.Photo != nil {
		itemRef = sql.NullString{String: o.Package.Photo.Ref, Valid: true}
		itemAt = sql.NullTime{Time: o.Package.Photo.UploadedAt, Valid: true}
	}

	var couponCode sql.NullString
	var couponDiscount sql.NullInt64
	if o.Coupon != nil {
		couponCode = sql.NullString{String: o.Coupon.Code, Valid: true}
		couponDiscount = sql.NullInt64{Int64: o.Coupon.Discount, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.Code, o.CustomerID, string(o.Status), string(o.PaymentStatus),
		o.Pickup.Address, o.Pickup.Coordinate.Lat, o.Pickup.Coordinate.Lng, o.Pickup.ContactName, o.Pickup.ContactPhone,
		o.Dropoff.Address, o.Dropoff.Coordinate.Lat, o.Dropoff.Coordinate.Lng, o.Dropoff.ContactName, o.Dropoff.ContactPhone,
		string(o.Package.Size), o.Package.WeightGrams, o.Package.DeclaredValue, itemRef, itemAt,
		o.Pricing.BaseFare, o.Pricing.DistanceSurcharge, o.Pricing.CourierFee, o.Pricing.CarbonFee,
		o.Pricing.ServiceFee, o.Pricing.GST, o.Pricing.Discount, o.Pricing.Total,
		o.Pricing.Currency, o.Pricing.DistanceMeters, o.Pricing.DurationMinutes,
		couponCode, couponDiscount,
		o.Timeline.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = ?`, orderColumns)
	return r.scanOne(ctx, query, id, fmt.Sprintf("order %s not found", id))
}

func (r *MySQLOrderRepository) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE code = ?`, orderColumns)
	return r.scanOne(ctx, query, code, fmt.Sprintf("order %s not found", code))
}

// Claim atomically assigns a driver to a pending, unassigned order. The WHERE
// clause is the whole concurrency story: of two simultaneous claims exactly
// one UPDATE matches the row, the other sees zero rows affected and gets a
// conflict.
func (r *MySQLOrderRepository) Claim(ctx context.Context, id string, driver domain.Driver, claimableAfter time.Time, now time.Time) error {
	query := `
		UPDATE orders
		SET status = ?, driver_id = ?, driver_name = ?, driver_phone = ?, assigned_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND driver_id IS NULL
	`
	args := []any{
		string(domain.StatusAssigned), driver.ID, driver.Name, driver.Phone, now, now,
		id, string(domain.StatusPending),
	}
	if !claimableAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, claimableAfter)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("claiming order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewConflictError(fmt.Sprintf("order %s is not claimable", id))
	}

	return nil
}

var timelineColumn = map[domain.Status]string{
	domain.StatusAssigned:  "assigned_at",
	domain.StatusPickedUp:  "picked_up_at",
	domain.StatusInTransit: "in_transit_at",
	domain.StatusDelivered: "delivered_at",
	domain.StatusCancelled: "cancelled_at",
}

// UpdateStatus moves an order between statuses, guarded by the expected
// current status. Zero rows affected means the order changed under the
// caller, who must re-fetch before deciding anything; the update is never
// retried here.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, now time.Time) error {
	col, ok := timelineColumn[to]
	if !ok {
		return errors.NewInternalError(fmt.Sprintf("no timeline column for status %s", to), nil)
	}

	query := fmt.Sprintf(`
		UPDATE orders
		SET status = ?, %s = COALESCE(%s, ?), updated_at = ?
		WHERE id = ? AND status = ?
	`, col, col)

	result, err := r.db.ExecContext(ctx, query, string(to), now, now, id, string(from))
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewConflictError(fmt.Sprintf("order %s is no longer in status %s", id, from))
	}

	return nil
}

var evidenceColumns = map[domain.EvidenceSlot][2]string{
	domain.SlotItem:    {"item_photo_ref", "item_photo_at"},
	domain.SlotPickup:  {"pickup_photo_ref", "pickup_photo_at"},
	domain.SlotDropoff: {"dropoff_photo_ref", "dropoff_photo_at"},
}

// CommitEvidence records a durable storage reference against a slot. This is
// the second phase of an evidence upload; until it succeeds the slot counts
// as empty.
func (r *MySQLOrderRepository) CommitEvidence(ctx context.Context, id string, slot domain.EvidenceSlot, ref string, now time.Time) error {
	cols, ok := evidenceColumns[slot]
	if !ok {
		return errors.NewInternalError(fmt.Sprintf("no evidence columns for slot %s", slot), nil)
	}

	query := fmt.Sprintf(`UPDATE orders SET %s = ?, %s = ?, updated_at = ? WHERE id = ?`, cols[0], cols[1])

	result, err := r.db.ExecContext(ctx, query, ref, now, now, id)
	if err != nil {
		return fmt.Errorf("committing evidence: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}

	return nil
}

func (r *MySQLOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, now time.Time) error {
	query := `UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), now, id)
	if err != nil {
		return fmt.Errorf("updating payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}

	return nil
}

func (r *MySQLOrderRepository) scanOne(ctx context.Context, query, arg, notFoundMsg string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var (
		o              domain.Order
		status         string
		paymentStatus  string
		driverID       sql.NullString
		driverName     sql.NullString
		driverPhone    sql.NullString
		pickupName     sql.NullString
		pickupPhone    sql.NullString
		pickupRef      sql.NullString
		pickupAt       sql.NullTime
		dropoffName    sql.NullString
		dropoffPhone   sql.NullString
		dropoffRef     sql.NullString
		dropoffAt      sql.NullTime
		packageSize    string
		weightGrams    sql.NullInt64
		declaredValue  sql.NullInt64
		itemRef        sql.NullString
		itemAt         sql.NullTime
		couponCode     sql.NullString
		couponDiscount sql.NullInt64
		assignedAt     sql.NullTime
		pickedUpAt     sql.NullTime
		inTransitAt    sql.NullTime
		deliveredAt    sql.NullTime
		cancelledAt    sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.Code, &o.CustomerID, &status, &paymentStatus,
		&driverID, &driverName, &driverPhone,
		&o.Pickup.Address, &o.Pickup.Coordinate.Lat, &o.Pickup.Coordinate.Lng, &pickupName, &pickupPhone,
		&pickupRef, &pickupAt,
		&o.Dropoff.Address, &o.Dropoff.Coordinate.Lat, &o.Dropoff.Coordinate.Lng, &dropoffName, &dropoffPhone,
		&dropoffRef, &dropoffAt,
		&packageSize, &weightGrams, &declaredValue, &itemRef, &itemAt,
		&o.Pricing.BaseFare, &o.Pricing.DistanceSurcharge, &o.Pricing.CourierFee, &o.Pricing.CarbonFee,
		&o.Pricing.ServiceFee, &o.Pricing.GST, &o.Pricing.Discount, &o.Pricing.Total,
		&o.Pricing.Currency, &o.Pricing.DistanceMeters, &o.Pricing.DurationMinutes,
		&couponCode, &couponDiscount,
		&o.Timeline.CreatedAt, &assignedAt, &pickedUpAt, &inTransitAt, &deliveredAt, &cancelledAt, &o.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}

	o.Status = domain.Status(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	o.Package.Size = domain.PackageSize(packageSize)

	if driverID.Valid {
		driver := &domain.Driver{ID: driverID.String, Name: driverName.String}
		if driverPhone.Valid {
			driver.Phone = &driverPhone.String
		}
		o.Driver = driver
	}

	o.Pickup.ContactName = nullableString(pickupName)
	o.Pickup.ContactPhone = nullableString(pickupPhone)
	o.Dropoff.ContactName = nullableString(dropoffName)
	o.Dropoff.ContactPhone = nullableString(dropoffPhone)
	o.Package.WeightGrams = nullableInt(weightGrams)
	o.Package.DeclaredValue = nullableInt(declaredValue)

	o.Pickup.Photo = nullablePhoto(pickupRef, pickupAt)
	o.Dropoff.Photo = nullablePhoto(dropoffRef, dropoffAt)
	o.Package.Photo = nullablePhoto(itemRef, itemAt)

	if couponCode.Valid {
		o.Coupon = &domain.CouponSnapshot{Code: couponCode.String, Discount: couponDiscount.Int64}
	}

	o.Timeline.AssignedAt = nullableTime(assignedAt)
	o.Timeline.PickedUpAt = nullableTime(pickedUpAt)
	o.Timeline.InTransitAt = nullableTime(inTransitAt)
	o.Timeline.DeliveredAt = nullableTime(deliveredAt)
	o.Timeline.CancelledAt = nullableTime(cancelledAt)

	return &o, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func nullablePhoto(ref sql.NullString, at sql.NullTime) *domain.EvidencePhoto {
	if !ref.Valid {
		return nil
	}
	return &domain.EvidencePhoto{Ref: ref.String, UploadedAt: at.Time}
}
