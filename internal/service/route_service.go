package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/dto"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// RouteService defines the interface for the read-only route catalog
type RouteService interface {
	// GetRoute retrieves a route by ID
	GetRoute(ctx context.Context, id string) (*dto.RouteResponse, error)

	// ListRoutes retrieves all routes
	ListRoutes(ctx context.Context) ([]*dto.RouteResponse, error)

	// SearchRoutes retrieves routes matching origin and destination
	SearchRoutes(ctx context.Context, origin, destination string) ([]*dto.RouteResponse, error)

	// SeedRoutes loads the given routes into an empty catalog, filling in
	// IDs, capacity and timestamps
	SeedRoutes(ctx context.Context, routes []*domain.Route) error
}

// routeService implements RouteService
type routeService struct {
	routeRepo repository.RouteRepository
}

// NewRouteService creates a new route service
func NewRouteService(routeRepo repository.RouteRepository) RouteService {
	return &routeService{routeRepo: routeRepo}
}

// GetRoute retrieves a route by ID
func (s *routeService) GetRoute(ctx context.Context, id string) (*dto.RouteResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.route.get")
	defer span.End()

	if id == "" {
		return nil, domain.ErrInvalidRouteID
	}
	route, err := s.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToRouteResponse(route), nil
}

// ListRoutes retrieves all routes
func (s *routeService) ListRoutes(ctx context.Context) ([]*dto.RouteResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.route.list")
	defer span.End()

	routes, err := s.routeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToRouteResponses(routes), nil
}

// SearchRoutes retrieves routes matching origin and destination
func (s *routeService) SearchRoutes(ctx context.Context, origin, destination string) ([]*dto.RouteResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.route.search")
	defer span.End()

	routes, err := s.routeRepo.Search(ctx, origin, destination)
	if err != nil {
		return nil, err
	}
	return dto.ToRouteResponses(routes), nil
}

// SeedRoutes loads the given routes into an empty catalog
func (s *routeService) SeedRoutes(ctx context.Context, routes []*domain.Route) error {
	existing, err := s.routeRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, route := range routes {
		if route.ID == "" {
			route.ID = uuid.New().String()
		}
		if route.Capacity == 0 {
			route.Capacity = domain.DefaultRouteCapacity
		}
		route.SeatsAvailable = route.Capacity
		route.CreatedAt = now
		route.UpdatedAt = now
		if err := s.routeRepo.Create(ctx, route); err != nil {
			return err
		}
	}

	logger.Get().Info("route catalog seeded", zap.Int("routes", len(routes)))
	return nil
}
