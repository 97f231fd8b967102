package domain

import "errors"

// Domain errors
var (
	// Not found
	ErrRouteNotFound       = errors.New("route not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrTokenNotFound       = errors.New("redemption token not found")

	// Conflicts
	ErrInsufficientSeats      = errors.New("not enough seats available")
	ErrReservationNotPending  = errors.New("reservation is no longer pending")
	ErrAlreadyPurchased       = errors.New("reservation already purchased")
	ErrPurchaseAlreadyExists  = errors.New("purchase already exists for this reservation")
	ErrTokenAlreadyIssued     = errors.New("redemption token already issued")
	ErrTokenAlreadyUsed       = errors.New("redemption token already used")
	ErrPaymentNotSucceeded    = errors.New("payment has not succeeded")

	// Validation
	ErrInvalidRouteID       = errors.New("invalid route id")
	ErrInvalidReservationID = errors.New("invalid reservation id")
	ErrInvalidPurchaserID   = errors.New("invalid purchaser id")
	ErrInvalidSeatCounts    = errors.New("at least one seat is required and counts cannot be negative")

	// Upstream
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// Invariant violations: internal bugs, logged and rejected, never surfaced
	ErrSeatLeak = errors.New("seat release would exceed route capacity")
)

// IsNotFoundError reports whether err is an absence of an entity
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRouteNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrPurchaseNotFound) ||
		errors.Is(err, ErrTokenNotFound)
}

// IsConflictError reports whether err is a lost race or stale transition
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientSeats) ||
		errors.Is(err, ErrReservationNotPending) ||
		errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ErrPurchaseAlreadyExists) ||
		errors.Is(err, ErrTokenAlreadyIssued) ||
		errors.Is(err, ErrTokenAlreadyUsed) ||
		errors.Is(err, ErrPaymentNotSucceeded)
}

// IsValidationError reports whether err is a malformed request
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRouteID) ||
		errors.Is(err, ErrInvalidReservationID) ||
		errors.Is(err, ErrInvalidPurchaserID) ||
		errors.Is(err, ErrInvalidSeatCounts)
}

// IsUpstreamError reports whether err came from the payment provider
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
