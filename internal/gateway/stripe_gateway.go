package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// StripeGateway implements PaymentProvider using Stripe PaymentIntents
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// CreateIntent opens a Stripe PaymentIntent. Amounts are already in the
// smallest currency unit so they pass through unscaled.
func (g *StripeGateway) CreateIntent(ctx context.Context, req *IntentRequest) (*IntentResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("intent request is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: make(map[string]string),
	}
	params.Context = ctx

	params.Metadata["purchase_id"] = req.PurchaseID
	for k, v := range req.Metadata {
		params.Metadata[k] = v
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	return &IntentResponse{
		IntentRef:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapStripeStatus(pi.Status),
	}, nil
}

// GetIntentStatus reports the current state of a PaymentIntent
func (g *StripeGateway) GetIntentStatus(ctx context.Context, intentRef string) (IntentStatus, error) {
	if intentRef == "" {
		return "", fmt.Errorf("intent ref is required")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentRef, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return mapStripeStatus(pi.Status), nil
}

// Name returns the provider name
func (g *StripeGateway) Name() string {
	return "stripe"
}

func mapStripeStatus(status stripe.PaymentIntentStatus) IntentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentStatusFailed
	default:
		// requires_payment_method, requires_confirmation, requires_action,
		// processing: the client still has work to do
		return IntentStatusPending
	}
}
