package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus tracks settlement with the payment provider
type PurchaseStatus string

const (
	// PurchaseStatusAwaitingProvider means an intent is open and we are
	// waiting for the provider to confirm or reject it
	PurchaseStatusAwaitingProvider PurchaseStatus = "awaiting_provider"
	PurchaseStatusSucceeded        PurchaseStatus = "succeeded"
	PurchaseStatusFailed           PurchaseStatus = "failed"
)

// TokenStatus tracks the redemption token lifecycle: none -> active -> used,
// each transition irreversible
type TokenStatus string

const (
	TokenStatusNone   TokenStatus = "none"
	TokenStatusActive TokenStatus = "active"
	TokenStatusUsed   TokenStatus = "used"
)

// Purchase is the record of a payment attempt tied to a reservation. Exactly
// one purchase reaches succeeded per reservation.
type Purchase struct {
	ID                string         `json:"id"`
	ReservationID     string         `json:"reservation_id"`
	PurchaserID       string         `json:"purchaser_id"`
	Amount            int64          `json:"amount"` // minor currency units
	Currency          string         `json:"currency"`
	Provider          string         `json:"provider"`
	ProviderIntentRef string         `json:"provider_intent_ref"`
	ClientSecret      string         `json:"-"`
	Status            PurchaseStatus `json:"status"`
	Token             string         `json:"token,omitempty"`
	TokenStatus       TokenStatus    `json:"token_status"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	SettledAt         *time.Time     `json:"settled_at,omitempty"`
	RedeemedAt        *time.Time     `json:"redeemed_at,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewPurchase opens a purchase for a reservation awaiting provider settlement
func NewPurchase(reservationID, purchaserID string, amount int64, currency, provider string) (*Purchase, error) {
	if reservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if purchaserID == "" {
		return nil, ErrInvalidPurchaserID
	}
	if amount <= 0 {
		return nil, errors.New("purchase amount must be positive")
	}

	now := time.Now().UTC()
	return &Purchase{
		ID:            uuid.New().String(),
		ReservationID: reservationID,
		PurchaserID:   purchaserID,
		Amount:        amount,
		Currency:      currency,
		Provider:      provider,
		Status:        PurchaseStatusAwaitingProvider,
		TokenStatus:   TokenStatusNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// SetIntent records the provider's intent reference and client secret
func (p *Purchase) SetIntent(intentRef, clientSecret string) {
	p.ProviderIntentRef = intentRef
	p.ClientSecret = clientSecret
	p.UpdatedAt = time.Now().UTC()
}

// MarkSucceeded settles the purchase
func (p *Purchase) MarkSucceeded() error {
	if p.Status == PurchaseStatusSucceeded {
		return nil
	}
	if p.Status != PurchaseStatusAwaitingProvider {
		return errors.New("purchase can only succeed while awaiting the provider")
	}
	now := time.Now().UTC()
	p.Status = PurchaseStatusSucceeded
	p.SettledAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkFailed records a provider rejection or a lost race with expiry
func (p *Purchase) MarkFailed(reason string) error {
	if p.Status == PurchaseStatusSucceeded {
		return errors.New("settled purchase cannot fail")
	}
	p.Status = PurchaseStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IssueToken activates the single-use redemption token. Issuing twice is
// rejected so a purchase never carries more than one token.
func (p *Purchase) IssueToken(token string) error {
	if p.TokenStatus != TokenStatusNone {
		return ErrTokenAlreadyIssued
	}
	if p.Status != PurchaseStatusSucceeded {
		return ErrPaymentNotSucceeded
	}
	p.Token = token
	p.TokenStatus = TokenStatusActive
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ConsumeToken flips the token active -> used
func (p *Purchase) ConsumeToken() error {
	switch p.TokenStatus {
	case TokenStatusActive:
		now := time.Now().UTC()
		p.TokenStatus = TokenStatusUsed
		p.RedeemedAt = &now
		p.UpdatedAt = now
		return nil
	case TokenStatusUsed:
		return ErrTokenAlreadyUsed
	default:
		return ErrTokenNotFound
	}
}

// IsSettled reports whether the provider confirmed the payment
func (p *Purchase) IsSettled() bool {
	return p.Status == PurchaseStatusSucceeded
}
