package repository

import (
	"context"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// PurchaseRepository defines the interface for purchase and redemption token
// data access
type PurchaseRepository interface {
	// Create inserts a new purchase record. Returns
	// domain.ErrPurchaseAlreadyExists when the reservation already has an
	// open or settled purchase.
	Create(ctx context.Context, purchase *domain.Purchase) error

	// GetByID retrieves a purchase by its ID
	GetByID(ctx context.Context, id string) (*domain.Purchase, error)

	// GetByReservationID retrieves the open or settled purchase for a
	// reservation. Failed purchases are not returned.
	GetByReservationID(ctx context.Context, reservationID string) (*domain.Purchase, error)

	// GetByIntentRef retrieves a purchase by its provider intent reference
	GetByIntentRef(ctx context.Context, intentRef string) (*domain.Purchase, error)

	// Update updates an existing purchase
	Update(ctx context.Context, purchase *domain.Purchase) error

	// IssueToken atomically attaches a redemption token to a settled
	// purchase. Returns domain.ErrTokenAlreadyIssued if the purchase already
	// carries a token, domain.ErrPaymentNotSucceeded if it has not settled.
	IssueToken(ctx context.Context, purchaseID, token string) error

	// ConsumeToken atomically flips a token from active to used and returns
	// the purchase it belonged to. Returns domain.ErrTokenAlreadyUsed for a
	// spent token and domain.ErrTokenNotFound for an unknown one. At most
	// one caller ever succeeds per token.
	ConsumeToken(ctx context.Context, token string) (*domain.Purchase, error)
}
