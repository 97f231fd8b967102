package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusPurchased ReservationStatus = "purchased"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusPurchased,
		ReservationStatusExpired, ReservationStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationStatusPending
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// Reservation is a hold against route inventory for a seat mix, awaiting
// payment. Seats are decremented from the route exactly once at creation and
// restored exactly once on expiry or cancellation.
type Reservation struct {
	ID          string            `json:"id"`
	RouteID     string            `json:"route_id"`
	AdultCount  int               `json:"adult_count"`
	ChildCount  int               `json:"child_count"`
	SeniorCount int               `json:"senior_count"`
	// TotalPrice is fixed at creation from the route's prices at that moment;
	// later catalog price changes never alter it.
	TotalPrice  int64             `json:"total_price"`
	Currency    string            `json:"currency"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	PurchasedAt *time.Time        `json:"purchased_at,omitempty"`
	ExpiredAt   *time.Time        `json:"expired_at,omitempty"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewReservation builds a pending reservation priced at the route's current
// category prices
func NewReservation(route *Route, adult, child, senior int, ttl time.Duration) (*Reservation, error) {
	if route == nil {
		return nil, ErrRouteNotFound
	}
	if adult < 0 || child < 0 || senior < 0 || adult+child+senior < 1 {
		return nil, ErrInvalidSeatCounts
	}

	now := time.Now().UTC()
	return &Reservation{
		ID:          uuid.New().String(),
		RouteID:     route.ID,
		AdultCount:  adult,
		ChildCount:  child,
		SeniorCount: senior,
		TotalPrice:  route.PriceFor(adult, child, senior),
		Status:      ReservationStatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		UpdatedAt:   now,
	}, nil
}

// TotalSeats returns the number of seats this reservation holds
func (r *Reservation) TotalSeats() int {
	return r.AdultCount + r.ChildCount + r.SeniorCount
}

// Validate validates reservation fields
func (r *Reservation) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrInvalidReservationID
	}
	if strings.TrimSpace(r.RouteID) == "" {
		return ErrInvalidRouteID
	}
	if r.AdultCount < 0 || r.ChildCount < 0 || r.SeniorCount < 0 || r.TotalSeats() < 1 {
		return ErrInvalidSeatCounts
	}
	return nil
}

// IsPending reports whether the reservation still holds inventory
func (r *Reservation) IsPending() bool {
	return r.Status == ReservationStatusPending
}

// IsPurchased reports whether payment settled for the reservation
func (r *Reservation) IsPurchased() bool {
	return r.Status == ReservationStatusPurchased
}

// IsPastTTL reports whether the reservation is older than its TTL at the
// given instant
func (r *Reservation) IsPastTTL(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
