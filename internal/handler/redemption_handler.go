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

// RedemptionHandler handles redemption token HTTP requests
type RedemptionHandler struct {
	redemptionService service.RedemptionService
}

// NewRedemptionHandler creates a new redemption handler
func NewRedemptionHandler(redemptionService service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

// Issue handles POST /purchases/:id/token
func (h *RedemptionHandler) Issue(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.redemption.issue")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	span.SetAttributes(attribute.String("purchase_id", c.Param("id")))

	result, err := h.redemptionService.IssueToken(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Validate handles POST /redemptions/validate
func (h *RedemptionHandler) Validate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.redemption.validate")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ValidateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.redemptionService.ValidateAndConsume(ctx, req.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
