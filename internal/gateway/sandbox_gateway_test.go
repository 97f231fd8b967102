package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sh4cK-18/travel-bus/internal/domain"
)

func sandboxConfig(autoSettle bool, successRate float64) *SandboxGatewayConfig {
	return &SandboxGatewayConfig{
		SuccessRate: successRate,
		DelayMs:     0,
		AutoSettle:  autoSettle,
	}
}

func TestSandboxCreateIntent(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway(sandboxConfig(false, 1.0))

	resp, err := g.CreateIntent(ctx, &IntentRequest{
		PurchaseID: "pur-1",
		Amount:     12500,
		Currency:   "usd",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.IntentRef, "pi_sandbox_"))
	assert.Contains(t, resp.ClientSecret, "_secret_")
	assert.Equal(t, IntentStatusPending, resp.Status)

	_, err = g.CreateIntent(ctx, nil)
	assert.Error(t, err)
}

func TestSandboxCompleteIntent(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway(sandboxConfig(false, 1.0))

	resp, err := g.CreateIntent(ctx, &IntentRequest{PurchaseID: "pur-1", Amount: 100, Currency: "usd"})
	require.NoError(t, err)

	// Without auto settle the intent stays pending until completed
	status, err := g.GetIntentStatus(ctx, resp.IntentRef)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusPending, status)

	require.NoError(t, g.CompleteIntent(resp.IntentRef, true))
	status, err = g.GetIntentStatus(ctx, resp.IntentRef)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusSucceeded, status)

	assert.Error(t, g.CompleteIntent("pi_unknown", true))
}

func TestSandboxCompleteIntentFailure(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway(sandboxConfig(false, 1.0))

	resp, err := g.CreateIntent(ctx, &IntentRequest{PurchaseID: "pur-1", Amount: 100, Currency: "usd"})
	require.NoError(t, err)

	require.NoError(t, g.CompleteIntent(resp.IntentRef, false))
	status, err := g.GetIntentStatus(ctx, resp.IntentRef)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusFailed, status)
}

func TestSandboxAutoSettle(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway(sandboxConfig(true, 1.0))

	resp, err := g.CreateIntent(ctx, &IntentRequest{PurchaseID: "pur-1", Amount: 100, Currency: "usd"})
	require.NoError(t, err)

	// First poll settles, repeats are stable
	status, err := g.GetIntentStatus(ctx, resp.IntentRef)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusSucceeded, status)

	status, err = g.GetIntentStatus(ctx, resp.IntentRef)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusSucceeded, status)
}

func TestSandboxAutoSettleZeroSuccessRate(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway(sandboxConfig(true, 0.0))

	resp, err := g.CreateIntent(ctx, &IntentRequest{PurchaseID: "pur-1", Amount: 100, Currency: "usd"})
	require.NoError(t, err)

	status, err := g.GetIntentStatus(ctx, resp.IntentRef)
	require.NoError(t, err)
	assert.Equal(t, IntentStatusFailed, status)
}

func TestSandboxUnknownIntent(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway(sandboxConfig(true, 1.0))

	_, err := g.GetIntentStatus(ctx, "pi_unknown")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	_, err = g.GetIntentStatus(ctx, "")
	assert.Error(t, err)
}

func TestSandboxName(t *testing.T) {
	assert.Equal(t, "sandbox", NewSandboxGateway(nil).Name())
}
