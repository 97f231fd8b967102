package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/internal/dto"
	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// ReservationService defines the interface for reservation business logic
type ReservationService interface {
	// CreateReservation places a seat hold on a route. The seat decrement and
	// the reservation row commit together, so an accepted reservation always
	// holds real inventory.
	CreateReservation(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)

	// GetReservation retrieves a reservation. A pending reservation past its
	// TTL is expired on read so callers never see a stale hold.
	GetReservation(ctx context.Context, id string) (*dto.ReservationResponse, error)

	// CancelReservation cancels a pending reservation and releases its seats
	CancelReservation(ctx context.Context, id string) (*dto.ReservationResponse, error)

	// ExpireReservation expires a single pending reservation past its TTL.
	// Expiring a reservation that already left pending is a no-op.
	ExpireReservation(ctx context.Context, id string) error

	// ListRouteReservations retrieves all reservations for a route
	ListRouteReservations(ctx context.Context, routeID string) ([]*dto.ReservationResponse, error)
}

// reservationService implements ReservationService
type reservationService struct {
	routeRepo       repository.RouteRepository
	reservationRepo repository.ReservationRepository
	eventPublisher  EventPublisher
	metrics         *metrics.Metrics
	reservationTTL  time.Duration
	defaultCurrency string
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	ReservationTTL  time.Duration
	DefaultCurrency string
}

// NewReservationService creates a new reservation service
func NewReservationService(
	routeRepo repository.RouteRepository,
	reservationRepo repository.ReservationRepository,
	eventPublisher EventPublisher,
	m *metrics.Metrics,
	cfg *ReservationServiceConfig,
) ReservationService {
	ttl := time.Hour
	currency := "usd"
	if cfg != nil {
		if cfg.ReservationTTL > 0 {
			ttl = cfg.ReservationTTL
		}
		if cfg.DefaultCurrency != "" {
			currency = cfg.DefaultCurrency
		}
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &reservationService{
		routeRepo:       routeRepo,
		reservationRepo: reservationRepo,
		eventPublisher:  eventPublisher,
		metrics:         m,
		reservationTTL:  ttl,
		defaultCurrency: currency,
	}
}

// CreateReservation places a seat hold on a route
func (s *reservationService) CreateReservation(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.create")
	defer span.End()

	if req == nil || req.RouteID == "" {
		span.SetStatus(codes.Error, "invalid route_id")
		return nil, domain.ErrInvalidRouteID
	}

	span.SetAttributes(
		attribute.String("route_id", req.RouteID),
		attribute.Int("seats", req.AdultCount+req.ChildCount+req.SeniorCount),
	)

	// Price the reservation from the route's current catalog prices. The
	// price is frozen here; the seat check happens in the transactional
	// create below, not against this read.
	route, err := s.routeRepo.GetByID(ctx, req.RouteID)
	if err != nil {
		span.SetStatus(codes.Error, "route lookup failed")
		return nil, err
	}

	reservation, err := domain.NewReservation(route, req.AdultCount, req.ChildCount, req.SeniorCount, s.reservationTTL)
	if err != nil {
		span.SetStatus(codes.Error, "invalid reservation")
		return nil, err
	}
	reservation.Currency = s.defaultCurrency

	if err := s.reservationRepo.CreateHolding(ctx, reservation); err != nil {
		if errors.Is(err, domain.ErrInsufficientSeats) && s.metrics != nil {
			s.metrics.ReservationConflicts.Add(ctx, 1)
		}
		span.SetStatus(codes.Error, "seat hold failed")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReservationsCreated.Add(ctx, 1)
	}
	s.publish(ctx, domain.EventReservationCreated, reservation, "")

	logger.Get().Info("reservation created",
		zap.String("reservation_id", reservation.ID),
		zap.String("route_id", reservation.RouteID),
		zap.Int("seats", reservation.TotalSeats()),
		zap.Int64("total_price", reservation.TotalPrice),
	)

	return dto.ToReservationResponse(reservation), nil
}

// GetReservation retrieves a reservation, expiring it lazily if its TTL
// elapsed while it was still pending
func (s *reservationService) GetReservation(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	if id == "" {
		return nil, domain.ErrInvalidReservationID
	}

	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.IsPending() && reservation.IsPastTTL(time.Now().UTC()) {
		if err := s.ExpireReservation(ctx, id); err != nil {
			return nil, err
		}
		reservation, err = s.reservationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return dto.ToReservationResponse(reservation), nil
}

// CancelReservation cancels a pending reservation and releases its seats
func (s *reservationService) CancelReservation(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	if id == "" {
		return nil, domain.ErrInvalidReservationID
	}
	span.SetAttributes(attribute.String("reservation_id", id))

	if err := s.reservationRepo.MarkCancelled(ctx, id, time.Now().UTC()); err != nil {
		span.SetStatus(codes.Error, "cancel failed")
		return nil, err
	}

	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReservationsCancelled.Add(ctx, 1)
	}
	s.publish(ctx, domain.EventReservationCancelled, reservation, "")

	logger.Get().Info("reservation cancelled",
		zap.String("reservation_id", id),
		zap.Int("seats_released", reservation.TotalSeats()),
	)

	return dto.ToReservationResponse(reservation), nil
}

// ExpireReservation expires a single pending reservation. A reservation that
// already left pending, by purchase or an earlier expiry, is left alone.
func (s *reservationService) ExpireReservation(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.expire")
	defer span.End()

	err := s.reservationRepo.MarkExpired(ctx, id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotPending) {
			return nil
		}
		span.SetStatus(codes.Error, "expire failed")
		return err
	}

	reservation, getErr := s.reservationRepo.GetByID(ctx, id)
	if getErr == nil {
		s.publish(ctx, domain.EventReservationExpired, reservation, "ttl_elapsed")
	}

	if s.metrics != nil {
		s.metrics.ReservationsExpired.Add(ctx, 1)
	}

	logger.Get().Info("reservation expired", zap.String("reservation_id", id))
	return nil
}

// ListRouteReservations retrieves all reservations for a route
func (s *reservationService) ListRouteReservations(ctx context.Context, routeID string) ([]*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list_by_route")
	defer span.End()

	if routeID == "" {
		return nil, domain.ErrInvalidRouteID
	}

	if _, err := s.routeRepo.GetByID(ctx, routeID); err != nil {
		return nil, err
	}

	reservations, err := s.reservationRepo.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return dto.ToReservationResponses(reservations), nil
}

// publish sends a lifecycle event, logging instead of failing the operation
// when the broker is unavailable
func (s *reservationService) publish(ctx context.Context, eventType domain.EventType, reservation *domain.Reservation, reason string) {
	event := domain.NewEvent(eventType, reservation.ID)
	event.RouteID = reservation.RouteID
	event.Seats = reservation.TotalSeats()
	event.Amount = reservation.TotalPrice
	event.Currency = reservation.Currency
	event.Reason = reason

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		logger.Get().Warn("failed to publish event",
			zap.String("event_type", string(eventType)),
			zap.String("reservation_id", reservation.ID),
			zap.Error(err),
		)
	}
}
