package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		150:   "1.50",
		1250:  "12.50",
		30000: "300.00",
		-450:  "-4.50",
	}
	for cents, want := range cases {
		assert.Equal(t, want, FormatCents(cents))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "staff@example.com", "staff")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "staff@example.com", claims.Email)
	assert.Equal(t, "staff", claims.Role)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}
