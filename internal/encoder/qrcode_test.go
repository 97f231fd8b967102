package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRTokenEncoder(t *testing.T) {
	enc := NewQRTokenEncoder()

	out, err := enc.Encode("abcdef0123456789abcdef0123456789")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))
	assert.Greater(t, len(out), len("data:image/png;base64,"))
}

func TestQRTokenEncoderEmptyToken(t *testing.T) {
	enc := NewQRTokenEncoder()

	_, err := enc.Encode("")
	assert.Error(t, err)
}
