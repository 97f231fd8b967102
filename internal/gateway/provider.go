package gateway

import "context"

// IntentStatus is the provider-side state of a payment intent
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
)

// IntentRequest opens a payment intent with the provider. Amount is in minor
// currency units.
type IntentRequest struct {
	PurchaseID  string
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// IntentResponse carries the provider's handle for a created intent
type IntentResponse struct {
	IntentRef    string
	ClientSecret string
	Status       IntentStatus
}

// PaymentProvider abstracts the external payment processor. The engine only
// needs to open an intent and ask how it ended, everything in between happens
// between the client and the provider.
type PaymentProvider interface {
	// CreateIntent opens a payment intent for the given amount
	CreateIntent(ctx context.Context, req *IntentRequest) (*IntentResponse, error)

	// GetIntentStatus reports the current state of an intent
	GetIntentStatus(ctx context.Context, intentRef string) (IntentStatus, error)

	// Name returns the provider name
	Name() string
}
