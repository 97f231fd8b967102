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

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Begin handles POST /payments
func (h *PaymentHandler) Begin(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.begin")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.BeginPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("reservation_id", req.ReservationID))

	result, err := h.paymentService.BeginPayment(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("purchase_id", result.PurchaseID))
	response.Created(c, result)
}

// Confirm handles POST /payments/:id/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.confirm")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	span.SetAttributes(attribute.String("purchase_id", c.Param("id")))

	result, err := h.paymentService.ConfirmPayment(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	result, err := h.paymentService.GetPurchase(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Webhook handles POST /payments/webhook. The provider reports intent
// outcomes here; a succeeded intent drives the same settlement path as an
// explicit confirm.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.payment.webhook")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var event dto.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		span.SetStatus(codes.Error, "invalid webhook payload")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("event_type", event.Type),
		attribute.String("intent_ref", event.IntentRef),
	)

	switch event.Type {
	case "payment_intent.succeeded":
		result, err := h.paymentService.OnIntentSucceeded(ctx, event.IntentRef)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			handleError(c, err)
			return
		}
		response.Success(c, result)
	case "payment_intent.payment_failed":
		if err := h.paymentService.OnIntentFailed(ctx, event.IntentRef, event.Reason); err != nil {
			span.RecordError(err)
			handleError(c, err)
			return
		}
		response.Success(c, gin.H{"received": true})
	default:
		// Acknowledge event types we do not act on
		response.Success(c, gin.H{"received": true})
	}
}
