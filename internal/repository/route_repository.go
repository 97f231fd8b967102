package repository

import (
	"context"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// RouteRepository defines the interface for route catalog and inventory access.
// Seat counts only change through reservation lifecycle operations, so the
// mutating seat methods live on ReservationRepository where they run inside
// the same transaction as the reservation row.
type RouteRepository interface {
	// Create inserts a new route with its full capacity available
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route by its ID
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// List retrieves all routes ordered by departure time
	List(ctx context.Context) ([]*domain.Route, error)

	// Search retrieves routes matching origin and destination. Empty
	// arguments match everything.
	Search(ctx context.Context, origin, destination string) ([]*domain.Route, error)
}
