package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/pkg/response"
	"github.com/Sh4cK-18/travel-bus/pkg/telemetry"
)

// RouteHandler handles read-only route catalog HTTP requests
type RouteHandler struct {
	routeService service.RouteService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routeService service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// List handles GET /routes. Origin and destination query parameters narrow
// the result.
func (h *RouteHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.route.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	origin := c.Query("origin")
	destination := c.Query("destination")

	var err error
	var result interface{}
	if origin == "" && destination == "" {
		result, err = h.routeService.ListRoutes(ctx)
	} else {
		result, err = h.routeService.SearchRoutes(ctx, origin, destination)
	}
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Get handles GET /routes/:id
func (h *RouteHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.route.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	result, err := h.routeService.GetRoute(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
