package domain

import (
	"time"
)

// DefaultRouteCapacity is the seat count a route is seeded with
const DefaultRouteCapacity = 30

// Route represents a scheduled bus route. The catalog owns every field except
// SeatsAvailable, which only the inventory ledger mutates.
type Route struct {
	ID             string    `json:"id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	Gate           string    `json:"gate"`
	PriceAdult     int64     `json:"price_adult"`  // minor currency units
	PriceChild     int64     `json:"price_child"`
	PriceSenior    int64     `json:"price_senior"`
	Capacity       int       `json:"capacity"`
	SeatsAvailable int       `json:"seats_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PriceFor returns the total price in minor units for a seat mix at the
// route's current prices
func (r *Route) PriceFor(adult, child, senior int) int64 {
	return r.PriceAdult*int64(adult) +
		r.PriceChild*int64(child) +
		r.PriceSenior*int64(senior)
}

// HasCapacityFor reports whether the route currently has count seats free
func (r *Route) HasCapacityFor(count int) bool {
	return count <= r.SeatsAvailable
}
