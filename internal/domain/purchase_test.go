package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPurchase(t *testing.T) *Purchase {
	t.Helper()
	p, err := NewPurchase("res-1", "buyer-1", 12500, "usd", "sandbox")
	require.NoError(t, err)
	return p
}

func TestNewPurchase(t *testing.T) {
	p := testPurchase(t)

	assert.Equal(t, PurchaseStatusAwaitingProvider, p.Status)
	assert.Equal(t, TokenStatusNone, p.TokenStatus)
	assert.NotEmpty(t, p.ID)

	_, err := NewPurchase("", "buyer-1", 100, "usd", "sandbox")
	assert.ErrorIs(t, err, ErrInvalidReservationID)

	_, err = NewPurchase("res-1", "", 100, "usd", "sandbox")
	assert.ErrorIs(t, err, ErrInvalidPurchaserID)

	_, err = NewPurchase("res-1", "buyer-1", 0, "usd", "sandbox")
	assert.Error(t, err)
}

func TestPurchaseSettlement(t *testing.T) {
	t.Run("succeeds from awaiting", func(t *testing.T) {
		p := testPurchase(t)
		require.NoError(t, p.MarkSucceeded())
		assert.True(t, p.IsSettled())
		assert.NotNil(t, p.SettledAt)
	})

	t.Run("succeeding twice is a no-op", func(t *testing.T) {
		p := testPurchase(t)
		require.NoError(t, p.MarkSucceeded())
		assert.NoError(t, p.MarkSucceeded())
	})

	t.Run("settled purchase cannot fail", func(t *testing.T) {
		p := testPurchase(t)
		require.NoError(t, p.MarkSucceeded())
		assert.Error(t, p.MarkFailed("late decline"))
	})

	t.Run("failed purchase cannot succeed", func(t *testing.T) {
		p := testPurchase(t)
		require.NoError(t, p.MarkFailed("card_declined"))
		assert.Error(t, p.MarkSucceeded())
		assert.Equal(t, "card_declined", p.FailureReason)
	})
}

func TestPurchaseToken(t *testing.T) {
	t.Run("issues only after settlement", func(t *testing.T) {
		p := testPurchase(t)
		assert.ErrorIs(t, p.IssueToken("abc"), ErrPaymentNotSucceeded)

		require.NoError(t, p.MarkSucceeded())
		require.NoError(t, p.IssueToken("abc"))
		assert.Equal(t, TokenStatusActive, p.TokenStatus)
	})

	t.Run("issues exactly once", func(t *testing.T) {
		p := testPurchase(t)
		require.NoError(t, p.MarkSucceeded())
		require.NoError(t, p.IssueToken("abc"))
		assert.ErrorIs(t, p.IssueToken("def"), ErrTokenAlreadyIssued)
		assert.Equal(t, "abc", p.Token)
	})

	t.Run("consumes exactly once", func(t *testing.T) {
		p := testPurchase(t)
		require.NoError(t, p.MarkSucceeded())
		require.NoError(t, p.IssueToken("abc"))

		require.NoError(t, p.ConsumeToken())
		assert.Equal(t, TokenStatusUsed, p.TokenStatus)
		assert.NotNil(t, p.RedeemedAt)

		assert.ErrorIs(t, p.ConsumeToken(), ErrTokenAlreadyUsed)
	})

	t.Run("consuming an unissued token fails", func(t *testing.T) {
		p := testPurchase(t)
		assert.ErrorIs(t, p.ConsumeToken(), ErrTokenNotFound)
	})
}
