package tokens

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(RefreshTokenBytes)
	require.NoError(t, err)
	b, err := GenerateOpaqueToken(RefreshTokenBytes)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, RefreshTokenBytes)
}

func TestSHA256Base64URL_Deterministic(t *testing.T) {
	assert.Equal(t, SHA256Base64URL("abc"), SHA256Base64URL("abc"))
	assert.NotEqual(t, SHA256Base64URL("abc"), SHA256Base64URL("abd"))
	assert.Equal(t, "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0", SHA256Base64URL("abc"))
}
