package dto

import (
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// BeginPaymentRequest opens a payment intent for a pending reservation
type BeginPaymentRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	PurchaserID   string `json:"purchaser_id" binding:"required"`
}

// BeginPaymentResponse carries the provider handle the client needs to
// complete the payment
type BeginPaymentResponse struct {
	PurchaseID        string `json:"purchase_id"`
	ReservationID     string `json:"reservation_id"`
	ProviderIntentRef string `json:"provider_intent_ref"`
	ClientSecret      string `json:"client_secret,omitempty"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
}

// ConfirmPaymentRequest settles a purchase after the client completed the
// provider flow
type ConfirmPaymentRequest struct {
	PurchaseID string `json:"purchase_id" binding:"required"`
}

// PurchaseResponse is the API representation of a purchase record
type PurchaseResponse struct {
	ID                string     `json:"id"`
	ReservationID     string     `json:"reservation_id"`
	PurchaserID       string     `json:"purchaser_id"`
	Amount            int64      `json:"amount"`
	Currency          string     `json:"currency"`
	Provider          string     `json:"provider"`
	ProviderIntentRef string     `json:"provider_intent_ref,omitempty"`
	Status            string     `json:"status"`
	TokenStatus       string     `json:"token_status"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`
}

// ToPurchaseResponse converts a domain purchase to its API shape. The token
// itself is never included here, it is only returned by the redemption
// endpoints.
func ToPurchaseResponse(p *domain.Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:                p.ID,
		ReservationID:     p.ReservationID,
		PurchaserID:       p.PurchaserID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Provider:          p.Provider,
		ProviderIntentRef: p.ProviderIntentRef,
		Status:            string(p.Status),
		TokenStatus:       string(p.TokenStatus),
		FailureReason:     p.FailureReason,
		CreatedAt:         p.CreatedAt,
		SettledAt:         p.SettledAt,
	}
}

// WebhookEvent is the minimal provider webhook payload we act on
type WebhookEvent struct {
	Type      string `json:"type" binding:"required"`
	IntentRef string `json:"intent_ref" binding:"required"`
	Reason    string `json:"reason,omitempty"`
}
