package dto

import (
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// CreateReservationRequest is the request body for creating a reservation
type CreateReservationRequest struct {
	RouteID     string `json:"route_id" binding:"required"`
	AdultCount  int    `json:"adult_count" binding:"min=0"`
	ChildCount  int    `json:"child_count" binding:"min=0"`
	SeniorCount int    `json:"senior_count" binding:"min=0"`
}

// ReservationResponse is the API representation of a reservation
type ReservationResponse struct {
	ID          string     `json:"id"`
	RouteID     string     `json:"route_id"`
	AdultCount  int        `json:"adult_count"`
	ChildCount  int        `json:"child_count"`
	SeniorCount int        `json:"senior_count"`
	TotalSeats  int        `json:"total_seats"`
	TotalPrice  int64      `json:"total_price"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// ToReservationResponse converts a domain reservation to its API shape
func ToReservationResponse(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:          r.ID,
		RouteID:     r.RouteID,
		AdultCount:  r.AdultCount,
		ChildCount:  r.ChildCount,
		SeniorCount: r.SeniorCount,
		TotalSeats:  r.TotalSeats(),
		TotalPrice:  r.TotalPrice,
		Currency:    r.Currency,
		Status:      r.Status.String(),
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
		PurchasedAt: r.PurchasedAt,
		ExpiredAt:   r.ExpiredAt,
		CancelledAt: r.CancelledAt,
	}
}

// ToReservationResponses converts a list of reservations
func ToReservationResponses(reservations []*domain.Reservation) []*ReservationResponse {
	out := make([]*ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, ToReservationResponse(r))
	}
	return out
}
