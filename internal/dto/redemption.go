package dto

import "time"

// IssueTokenResponse returns a freshly issued redemption token with its QR
// rendering
type IssueTokenResponse struct {
	PurchaseID string `json:"purchase_id"`
	Token      string `json:"token"`
	QRCode     string `json:"qr_code"` // base64 PNG data URL
}

// ValidateTokenRequest consumes a redemption token at boarding
type ValidateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateTokenResponse reports the outcome of a redemption attempt
type ValidateTokenResponse struct {
	Valid         bool       `json:"valid"`
	PurchaseID    string     `json:"purchase_id,omitempty"`
	ReservationID string     `json:"reservation_id,omitempty"`
	RouteID       string     `json:"route_id,omitempty"`
	Seats         int        `json:"seats,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
}
