package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

// alphanumericChars for generating provider-compatible IDs
const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomAlphanumeric generates a random alphanumeric string of given length
func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.Intn(len(alphanumericChars))]
	}
	return string(b)
}

// SandboxGateway implements PaymentProvider without any external calls. This
// is useful for testing, development and load testing.
type SandboxGateway struct {
	config  *SandboxGatewayConfig
	intents sync.Map // intentRef -> IntentStatus
}

// SandboxGatewayConfig holds configuration for the sandbox gateway
type SandboxGatewayConfig struct {
	// SuccessRate is the probability a settled intent succeeds (0.0 to 1.0)
	SuccessRate float64

	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int

	// AutoSettle makes GetIntentStatus settle the intent on first poll
	// instead of waiting for CompleteIntent
	AutoSettle bool
}

// DefaultSandboxGatewayConfig returns default configuration
func DefaultSandboxGatewayConfig() *SandboxGatewayConfig {
	return &SandboxGatewayConfig{
		SuccessRate: 0.95,
		DelayMs:     50,
		AutoSettle:  true,
	}
}

// NewSandboxGateway creates a new sandbox gateway
func NewSandboxGateway(config *SandboxGatewayConfig) *SandboxGateway {
	if config == nil {
		config = DefaultSandboxGatewayConfig()
	}
	if config.SuccessRate < 0 {
		config.SuccessRate = 0
	}
	if config.SuccessRate > 1 {
		config.SuccessRate = 1
	}
	return &SandboxGateway{config: config}
}

// CreateIntent opens a sandbox intent in pending state
func (g *SandboxGateway) CreateIntent(ctx context.Context, req *IntentRequest) (*IntentResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("intent request is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	intentRef := fmt.Sprintf("pi_sandbox_%s", randomAlphanumeric(24))
	clientSecret := fmt.Sprintf("%s_secret_%s", intentRef, randomAlphanumeric(24))

	g.intents.Store(intentRef, IntentStatusPending)

	return &IntentResponse{
		IntentRef:    intentRef,
		ClientSecret: clientSecret,
		Status:       IntentStatusPending,
	}, nil
}

// GetIntentStatus reports the current state of an intent. With AutoSettle the
// first poll rolls the dice and settles it.
func (g *SandboxGateway) GetIntentStatus(ctx context.Context, intentRef string) (IntentStatus, error) {
	if intentRef == "" {
		return "", fmt.Errorf("intent ref is required")
	}
	if err := g.delay(ctx); err != nil {
		return "", err
	}

	stored, ok := g.intents.Load(intentRef)
	if !ok {
		return "", fmt.Errorf("%w: unknown intent %s", domain.ErrProviderUnavailable, intentRef)
	}

	status := stored.(IntentStatus)
	if status == IntentStatusPending && g.config.AutoSettle {
		status = IntentStatusFailed
		if rand.Float64() < g.config.SuccessRate {
			status = IntentStatusSucceeded
		}
		g.intents.Store(intentRef, status)
	}
	return status, nil
}

// CompleteIntent settles an intent explicitly, standing in for the client
// finishing the provider flow
func (g *SandboxGateway) CompleteIntent(intentRef string, succeed bool) error {
	if _, ok := g.intents.Load(intentRef); !ok {
		return fmt.Errorf("unknown intent %s", intentRef)
	}
	status := IntentStatusFailed
	if succeed {
		status = IntentStatusSucceeded
	}
	g.intents.Store(intentRef, status)
	return nil
}

// Name returns the provider name
func (g *SandboxGateway) Name() string {
	return "sandbox"
}

func (g *SandboxGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}
