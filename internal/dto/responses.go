package dto

import (
	"swiftparcel/internal/domain"
	"swiftparcel/internal/errors"
)

type ErrorResponse struct {
	TraceID string                    `json:"traceId"`
	Message string                    `json:"message"`
	Details []errors.ValidationDetail `json:"details,omitempty"`
	Slot    string                    `json:"missingEvidenceSlot,omitempty"`
}

type OrderResponse struct {
	ID            string                 `json:"id"`
	Code          string                 `json:"code"`
	CustomerID    string                 `json:"customerId"`
	Status        domain.Status          `json:"status"`
	StatusLabel   string                 `json:"statusLabel"`
	PaymentStatus domain.PaymentStatus   `json:"paymentStatus"`
	Pickup        domain.Stop            `json:"pickup"`
	Dropoff       domain.Stop            `json:"dropoff"`
	Package       domain.Package         `json:"package"`
	Pricing       domain.FareSnapshot    `json:"pricing"`
	Coupon        *domain.CouponSnapshot `json:"coupon,omitempty"`
	Driver        *domain.Driver         `json:"driver,omitempty"`
	Timeline      domain.Timeline        `json:"timeline"`
}

func NewOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		Code:          o.Code,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		StatusLabel:   o.Status.Label(),
		PaymentStatus: o.PaymentStatus,
		Pickup:        o.Pickup,
		Dropoff:       o.Dropoff,
		Package:       o.Package,
		Pricing:       o.Pricing,
		Coupon:        o.Coupon,
		Driver:        o.Driver,
		Timeline:      o.Timeline,
	}
}

type CouponValidationResponse struct {
	Code     string              `json:"code"`
	Discount int64               `json:"discount"`
	NewTotal int64               `json:"newTotal"`
	Fare     domain.FareSnapshot `json:"fare"`
}

type EvidenceResponse struct {
	Slot  string               `json:"slot"`
	Photo domain.EvidencePhoto `json:"photo"`
}

// PublicOrderSummary is what the unauthenticated tracking page sees: enough
// to follow a delivery, nothing that identifies the customer.
type PublicOrderSummary struct {
	Code        string          `json:"code"`
	Status      domain.Status   `json:"status"`
	StatusLabel string          `json:"statusLabel"`
	Pickup      string          `json:"pickupAddress"`
	Dropoff     string          `json:"dropoffAddress"`
	Timeline    domain.Timeline `json:"timeline"`
}

type DriverSummary struct {
	Name string `json:"name"`
}

func NewPublicOrderSummary(o *domain.Order) PublicOrderSummary {
	return PublicOrderSummary{
		Code:        o.Code,
		Status:      o.Status,
		StatusLabel: o.Status.Label(),
		Pickup:      o.Pickup.Address,
		Dropoff:     o.Dropoff.Address,
		Timeline:    o.Timeline,
	}
}
