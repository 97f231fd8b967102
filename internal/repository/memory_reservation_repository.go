package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// MemoryReservationRepository implements ReservationRepository using in-memory
// storage backed by a MemoryRouteRepository for seat accounting. This is
// useful for testing and development.
type MemoryReservationRepository struct {
	reservations map[string]*domain.Reservation
	byRoute      map[string][]string // routeID -> []reservationID
	routes       *MemoryRouteRepository
	mu           sync.RWMutex
}

// NewMemoryReservationRepository creates a new in-memory reservation
// repository sharing seat state with the given route repository
func NewMemoryReservationRepository(routes *MemoryRouteRepository) *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]*domain.Reservation),
		byRoute:      make(map[string][]string),
		routes:       routes,
	}
}

// CreateHolding decrements the route's seats and inserts the pending
// reservation. The seat decrement is the contended step so it carries the
// compare-and-swap; the insert happens only after seats are secured.
func (r *MemoryReservationRepository) CreateHolding(ctx context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reservations[reservation.ID]; exists {
		return domain.ErrReservationNotPending
	}

	if err := r.routes.takeSeats(reservation.RouteID, reservation.TotalSeats()); err != nil {
		return err
	}

	res := *reservation
	r.reservations[reservation.ID] = &res
	r.byRoute[reservation.RouteID] = append(r.byRoute[reservation.RouteID], reservation.ID)
	return nil
}

// GetByID retrieves a reservation by its ID
func (r *MemoryReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, exists := r.reservations[id]
	if !exists {
		return nil, domain.ErrReservationNotFound
	}

	res := *reservation
	return &res, nil
}

// ListByRoute retrieves all reservations for a route
func (r *MemoryReservationRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byRoute[routeID]
	result := make([]*domain.Reservation, 0, len(ids))
	for _, id := range ids {
		if reservation, exists := r.reservations[id]; exists {
			res := *reservation
			result = append(result, &res)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ListExpired retrieves pending reservations whose TTL elapsed before the
// given instant
func (r *MemoryReservationRepository) ListExpired(ctx context.Context, before time.Time, limit int) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Reservation
	for _, reservation := range r.reservations {
		if reservation.IsPending() && reservation.ExpiresAt.Before(before) {
			res := *reservation
			result = append(result, &res)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpiresAt.Before(result[j].ExpiresAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkPurchased transitions pending -> purchased without touching seats
func (r *MemoryReservationRepository) MarkPurchased(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reservation, exists := r.reservations[id]
	if !exists {
		return domain.ErrReservationNotFound
	}
	if !reservation.IsPending() {
		return domain.ErrReservationNotPending
	}

	reservation.Status = domain.ReservationStatusPurchased
	t := at
	reservation.PurchasedAt = &t
	reservation.UpdatedAt = at
	return nil
}

// MarkExpired transitions pending -> expired and restores the held seats
func (r *MemoryReservationRepository) MarkExpired(ctx context.Context, id string, at time.Time) error {
	return r.releaseTransition(id, domain.ReservationStatusExpired, at)
}

// MarkCancelled transitions pending -> cancelled and restores the held seats
func (r *MemoryReservationRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	return r.releaseTransition(id, domain.ReservationStatusCancelled, at)
}

func (r *MemoryReservationRepository) releaseTransition(id string, to domain.ReservationStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reservation, exists := r.reservations[id]
	if !exists {
		return domain.ErrReservationNotFound
	}
	if !reservation.IsPending() {
		return domain.ErrReservationNotPending
	}
	// Expiry only fires once the TTL elapsed; cancellation is valid any time
	// while pending
	if to == domain.ReservationStatusExpired && !reservation.IsPastTTL(at) {
		return domain.ErrReservationNotPending
	}

	if err := r.routes.giveBackSeats(reservation.RouteID, reservation.TotalSeats()); err != nil {
		return err
	}

	reservation.Status = to
	t := at
	switch to {
	case domain.ReservationStatusExpired:
		reservation.ExpiredAt = &t
	case domain.ReservationStatusCancelled:
		reservation.CancelledAt = &t
	}
	reservation.UpdatedAt = at
	return nil
}

// Clear clears all data (for testing)
func (r *MemoryReservationRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations = make(map[string]*domain.Reservation)
	r.byRoute = make(map[string][]string)
}
