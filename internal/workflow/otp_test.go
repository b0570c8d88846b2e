package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeliveryCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateDeliveryCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher()
	hash, err := h.Hash("482913")
	require.NoError(t, err)
	assert.NotEqual(t, "482913", hash)
	assert.True(t, h.Compare(hash, "482913"))
	assert.False(t, h.Compare(hash, "000000"))
}
