package dto

import "swiftparcel/internal/domain"

type StopRequest struct {
	Address      string            `json:"address"`
	Coordinate   domain.Coordinate `json:"coordinate"`
	ContactName  *string           `json:"contactName,omitempty"`
	ContactPhone *string           `json:"contactPhone,omitempty"`
}

func (r StopRequest) ToDomain() domain.Stop {
	return domain.Stop{
		Address:      r.Address,
		Coordinate:   r.Coordinate,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
	}
}

type PackageRequest struct {
	Size          string `json:"size"`
	WeightGrams   *int64 `json:"weightGrams,omitempty"`
	DeclaredValue *int64 `json:"declaredValue,omitempty"`
}

func (r PackageRequest) ToDomain() domain.Package {
	return domain.Package{
		Size:          domain.PackageSize(r.Size),
		WeightGrams:   r.WeightGrams,
		DeclaredValue: r.DeclaredValue,
	}
}

type EstimateFareRequest struct {
	Pickup      domain.Coordinate `json:"pickup"`
	Dropoff     domain.Coordinate `json:"dropoff"`
	PackageSize string            `json:"packageSize"`
}

type ValidateCouponRequest struct {
	Code       string              `json:"code"`
	CustomerID string              `json:"customerId"`
	Fare       domain.FareSnapshot `json:"fare"`
}

type CreateOrderRequest struct {
	CustomerID   string         `json:"customerId"`
	Pickup       StopRequest    `json:"pickup"`
	Dropoff      StopRequest    `json:"dropoff"`
	Package      PackageRequest `json:"package"`
	ItemPhotoRef string         `json:"itemPhotoRef"`
	CouponCode   string         `json:"couponCode,omitempty"`
}

type ClaimOrderRequest struct {
	DriverID    string  `json:"driverId"`
	DriverName  string  `json:"driverName"`
	DriverPhone *string `json:"driverPhone,omitempty"`
}

type AdvanceStatusRequest struct {
	Target        string `json:"target"`
	AdminOverride bool   `json:"adminOverride,omitempty"`
}

type PublishLocationRequest struct {
	DriverID   string            `json:"driverId"`
	Coordinate domain.Coordinate `json:"coordinate"`
	Heading    *float64          `json:"heading,omitempty"`
	SpeedKMH   *float64          `json:"speedKmh,omitempty"`
}
