package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// MemoryRouteRepository implements RouteRepository using in-memory storage.
// This is useful for testing and development.
type MemoryRouteRepository struct {
	routes map[string]*domain.Route
	mu     sync.RWMutex
}

// NewMemoryRouteRepository creates a new in-memory route repository
func NewMemoryRouteRepository() *MemoryRouteRepository {
	return &MemoryRouteRepository{
		routes: make(map[string]*domain.Route),
	}
}

// Create inserts a new route
func (r *MemoryRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Clone to avoid external modifications
	rt := *route
	r.routes[route.ID] = &rt
	return nil
}

// GetByID retrieves a route by its ID
func (r *MemoryRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, exists := r.routes[id]
	if !exists {
		return nil, domain.ErrRouteNotFound
	}

	rt := *route
	return &rt, nil
}

// List retrieves all routes ordered by departure time
func (r *MemoryRouteRepository) List(ctx context.Context) ([]*domain.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Route, 0, len(r.routes))
	for _, route := range r.routes {
		rt := *route
		result = append(result, &rt)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DepartureTime.Before(result[j].DepartureTime)
	})
	return result, nil
}

// Search retrieves routes matching origin and destination
func (r *MemoryRouteRepository) Search(ctx context.Context, origin, destination string) ([]*domain.Route, error) {
	routes, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Route, 0, len(routes))
	for _, route := range routes {
		if origin != "" && !strings.EqualFold(route.Origin, origin) {
			continue
		}
		if destination != "" && !strings.EqualFold(route.Destination, destination) {
			continue
		}
		result = append(result, route)
	}
	return result, nil
}

// takeSeats decrements available seats if the route can cover the request.
// Called by MemoryReservationRepository under its own lock.
func (r *MemoryRouteRepository) takeSeats(routeID string, seats int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, exists := r.routes[routeID]
	if !exists {
		return domain.ErrRouteNotFound
	}
	if route.SeatsAvailable < seats {
		return domain.ErrInsufficientSeats
	}
	route.SeatsAvailable -= seats
	route.UpdatedAt = time.Now().UTC()
	return nil
}

// giveBackSeats restores seats released by an expired or cancelled reservation
func (r *MemoryRouteRepository) giveBackSeats(routeID string, seats int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, exists := r.routes[routeID]
	if !exists {
		return domain.ErrRouteNotFound
	}
	if route.SeatsAvailable+seats > route.Capacity {
		return domain.ErrSeatLeak
	}
	route.SeatsAvailable += seats
	route.UpdatedAt = time.Now().UTC()
	return nil
}

// Clear clears all data (for testing)
func (r *MemoryRouteRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = make(map[string]*domain.Route)
}
