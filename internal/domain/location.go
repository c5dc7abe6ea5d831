package domain

import (
	"math"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const earthRadiusMeters = 6371000.0

// DistanceMeters returns the haversine great-circle distance to other.
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// LocationSample is the latest reported driver position for an order. Each
// published sample fully replaces the previous one; no history is kept and
// samples are dropped once the order leaves the active status set.
type LocationSample struct {
	DriverID   string     `json:"driverId"`
	OrderID    string     `json:"orderId"`
	Coordinate Coordinate `json:"coordinate"`
	Heading    *float64   `json:"heading,omitempty"`
	SpeedKMH   *float64   `json:"speedKmh,omitempty"`
	CapturedAt time.Time  `json:"capturedAt"`
}
