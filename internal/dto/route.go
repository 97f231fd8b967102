package dto

import (
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// RouteResponse is the API representation of a route
type RouteResponse struct {
	ID             string    `json:"id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	Gate           string    `json:"gate"`
	PriceAdult     int64     `json:"price_adult"`
	PriceChild     int64     `json:"price_child"`
	PriceSenior    int64     `json:"price_senior"`
	Capacity       int       `json:"capacity"`
	SeatsAvailable int       `json:"seats_available"`
}

// ToRouteResponse converts a domain route to its API shape
func ToRouteResponse(r *domain.Route) *RouteResponse {
	return &RouteResponse{
		ID:             r.ID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		Gate:           r.Gate,
		PriceAdult:     r.PriceAdult,
		PriceChild:     r.PriceChild,
		PriceSenior:    r.PriceSenior,
		Capacity:       r.Capacity,
		SeatsAvailable: r.SeatsAvailable,
	}
}

// ToRouteResponses converts a list of routes
func ToRouteResponses(routes []*domain.Route) []*RouteResponse {
	out := make([]*RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, ToRouteResponse(r))
	}
	return out
}
