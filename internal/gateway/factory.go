package gateway

import (
	"fmt"

	"github.com/Sh4cK-18/travel-bus/pkg/config"
)

// NewPaymentProvider builds the configured payment provider
func NewPaymentProvider(cfg *config.PaymentConfig) (PaymentProvider, error) {
	switch cfg.Provider {
	case "stripe":
		return NewStripeGateway(&StripeGatewayConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.WebhookSecret,
		})
	case "sandbox", "":
		return NewSandboxGateway(DefaultSandboxGatewayConfig()), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.Provider)
	}
}
