package encoder

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the rendered PNG edge length in pixels
const qrSize = 256

// TokenEncoder renders redemption tokens as scannable images
type TokenEncoder interface {
	// Encode renders the token as a base64 PNG data URL
	Encode(token string) (string, error)
}

// QRTokenEncoder implements TokenEncoder using QR codes
type QRTokenEncoder struct{}

// NewQRTokenEncoder creates a new QR token encoder
func NewQRTokenEncoder() *QRTokenEncoder {
	return &QRTokenEncoder{}
}

// Encode renders the token as a base64 PNG data URL suitable for an <img> tag
func (e *QRTokenEncoder) Encode(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token is required")
	}

	png, err := qrcode.Encode(token, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
