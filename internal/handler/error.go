package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
	"github.com/Sh4cK-18/travel-bus/pkg/response"
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsNotFoundError(err):
		response.NotFound(c, errorCode(err), err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, errorCode(err), err.Error())
	case domain.IsUpstreamError(err):
		response.UpstreamFailure(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// errorCode assigns a stable machine-readable code per domain error
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRouteNotFound):
		return "ROUTE_NOT_FOUND"
	case errors.Is(err, domain.ErrReservationNotFound):
		return "RESERVATION_NOT_FOUND"
	case errors.Is(err, domain.ErrPurchaseNotFound):
		return "PURCHASE_NOT_FOUND"
	case errors.Is(err, domain.ErrTokenNotFound):
		return "TOKEN_NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientSeats):
		return "INSUFFICIENT_SEATS"
	case errors.Is(err, domain.ErrReservationNotPending):
		return "RESERVATION_NOT_PENDING"
	case errors.Is(err, domain.ErrAlreadyPurchased):
		return "ALREADY_PURCHASED"
	case errors.Is(err, domain.ErrPurchaseAlreadyExists):
		return "PURCHASE_ALREADY_EXISTS"
	case errors.Is(err, domain.ErrTokenAlreadyIssued):
		return "TOKEN_ALREADY_ISSUED"
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		return "TOKEN_ALREADY_USED"
	case errors.Is(err, domain.ErrPaymentNotSucceeded):
		return "PAYMENT_NOT_SUCCEEDED"
	default:
		return "INTERNAL_ERROR"
	}
}
