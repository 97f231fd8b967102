package repository

import (
	"context"
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// ReservationRepository defines the interface for reservation data access.
// Every method that changes seat availability couples the seat adjustment and
// the reservation row in one atomic operation, so a reservation can never hold
// seats twice or release them twice.
type ReservationRepository interface {
	// CreateHolding atomically decrements the route's available seats and
	// inserts the pending reservation. Returns domain.ErrInsufficientSeats
	// when the route cannot cover the requested seats.
	CreateHolding(ctx context.Context, reservation *domain.Reservation) error

	// GetByID retrieves a reservation by its ID
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// ListByRoute retrieves all reservations for a route
	ListByRoute(ctx context.Context, routeID string) ([]*domain.Reservation, error)

	// ListExpired retrieves pending reservations whose TTL elapsed before
	// the given instant, oldest first, up to limit
	ListExpired(ctx context.Context, before time.Time, limit int) ([]*domain.Reservation, error)

	// MarkPurchased transitions pending -> purchased. Seats stay decremented.
	// Returns domain.ErrReservationNotPending if the reservation exists but
	// already left pending.
	MarkPurchased(ctx context.Context, id string, at time.Time) error

	// MarkExpired transitions pending -> expired and restores the held seats
	// to the route in the same transaction
	MarkExpired(ctx context.Context, id string, at time.Time) error

	// MarkCancelled transitions pending -> cancelled and restores the held
	// seats to the route in the same transaction
	MarkCancelled(ctx context.Context, id string, at time.Time) error
}
