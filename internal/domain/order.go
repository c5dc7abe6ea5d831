package domain

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsActive reports whether the order is currently being physically moved.
// Location tracking runs only while this holds.
func (s Status) IsActive() bool {
	return s == StatusAssigned || s == StatusPickedUp || s == StatusInTransit
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Label is the viewer-facing description of a status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Waiting for a driver"
	case StatusAssigned:
		return "Driver assigned"
	case StatusPickedUp:
		return "Parcel picked up"
	case StatusInTransit:
		return "On the way"
	case StatusDelivered:
		return "Delivered"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type PackageSize string

const (
	SizeXS PackageSize = "XS"
	SizeS  PackageSize = "S"
	SizeM  PackageSize = "M"
	SizeL  PackageSize = "L"
)

func ValidPackageSize(s PackageSize) bool {
	switch s {
	case SizeXS, SizeS, SizeM, SizeL:
		return true
	}
	return false
}

type EvidenceSlot string

const (
	SlotItem    EvidenceSlot = "item"
	SlotPickup  EvidenceSlot = "pickup"
	SlotDropoff EvidenceSlot = "dropoff"
)

func ValidEvidenceSlot(s EvidenceSlot) bool {
	switch s {
	case SlotItem, SlotPickup, SlotDropoff:
		return true
	}
	return false
}

// EvidencePhoto is a committed reference to an uploaded photo. A slot holds at
// most one; re-uploading replaces it.
type EvidencePhoto struct {
	Ref        string    `json:"ref"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Stop struct {
	Address      string         `json:"address"`
	Coordinate   Coordinate     `json:"coordinate"`
	ContactName  *string        `json:"contactName,omitempty"`
	ContactPhone *string        `json:"contactPhone,omitempty"`
	Photo        *EvidencePhoto `json:"photo,omitempty"`
}

type Package struct {
	Size          PackageSize    `json:"size"`
	WeightGrams   *int64         `json:"weightGrams,omitempty"`
	DeclaredValue *int64         `json:"declaredValue,omitempty"`
	Photo         *EvidencePhoto `json:"photo,omitempty"`
}

type Driver struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
}

// FareSnapshot is the itemized fare frozen at order creation. All amounts are
// integer minor currency units (cents). Total is always the exact sum
// BaseFare + DistanceSurcharge + CourierFee + CarbonFee + ServiceFee + GST - Discount.
type FareSnapshot struct {
	BaseFare          int64  `json:"baseFare"`
	DistanceSurcharge int64  `json:"distanceSurcharge"`
	CourierFee        int64  `json:"courierFee"`
	CarbonFee         int64  `json:"carbonFee"`
	ServiceFee        int64  `json:"serviceFee"`
	GST               int64  `json:"gst"`
	Discount          int64  `json:"discount"`
	Total             int64  `json:"total"`
	Currency          string `json:"currency"`
	DistanceMeters    int64  `json:"distanceMeters"`
	DurationMinutes   int64  `json:"durationMinutes"`
}

// PreTaxSubtotal is the discountable amount: everything except GST.
func (f FareSnapshot) PreTaxSubtotal() int64 {
	return f.BaseFare + f.DistanceSurcharge + f.CourierFee + f.CarbonFee + f.ServiceFee
}

type CouponSnapshot struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

// Timeline records the server-observed time of every transition actually
// taken. CreatedAt is always set; the rest stay nil until their transition
// happens, and timestamps are monotonically non-decreasing.
type Timeline struct {
	CreatedAt   time.Time  `json:"createdAt"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	PickedUpAt  *time.Time `json:"pickedUpAt,omitempty"`
	InTransitAt *time.Time `json:"inTransitAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

type Order struct {
	ID            string
	Code          string
	CustomerID    string
	Status        Status
	PaymentStatus PaymentStatus
	Pickup        Stop
	Dropoff       Stop
	Package       Package
	Pricing       FareSnapshot
	Coupon        *CouponSnapshot
	Driver        *Driver
	Timeline      Timeline
	UpdatedAt     time.Time
}

// Evidence returns the photo occupying a slot, nil when empty.
func (o *Order) Evidence(slot EvidenceSlot) *EvidencePhoto {
	switch slot {
	case SlotItem:
		return o.Package.Photo
	case SlotPickup:
		return o.Pickup.Photo
	case SlotDropoff:
		return o.Dropoff.Photo
	}
	return nil
}

// SetEvidence fills (or replaces) a slot.
func (o *Order) SetEvidence(slot EvidenceSlot, photo EvidencePhoto) {
	switch slot {
	case SlotItem:
		o.Package.Photo = &photo
	case SlotPickup:
		o.Pickup.Photo = &photo
	case SlotDropoff:
		o.Dropoff.Photo = &photo
	}
}
