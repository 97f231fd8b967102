package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sh4cK-18/travel-bus/internal/dto"
	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/pkg/response"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// ReservationHandler handles reservation HTTP requests
type ReservationHandler struct {
	reservationService service.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// Create handles POST /reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("route_id", req.RouteID),
		attribute.Int("seats", req.AdultCount+req.ChildCount+req.SeniorCount),
	)

	result, err := h.reservationService.CreateReservation(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("reservation_id", result.ID))
	response.Created(c, result)
}

// Get handles GET /reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	result, err := h.reservationService.GetReservation(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Cancel handles POST /reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	span.SetAttributes(attribute.String("reservation_id", c.Param("id")))

	result, err := h.reservationService.CancelReservation(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// ListByRoute handles GET /routes/:id/reservations
func (h *ReservationHandler) ListByRoute(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.list_by_route")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	result, err := h.reservationService.ListRouteReservations(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
