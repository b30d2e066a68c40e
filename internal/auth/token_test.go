package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour)
	require.NoError(t, err)

	// Compact three-part form, usable as an opaque bearer string.
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateToken(testSecret, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	// Swap the payload for a far-future expiry without re-signing.
	parts[1] = "eyJleHAiOjk5OTk5OTk5OTl9"
	_, err = ParseToken(strings.Join(parts, "."), testSecret)
	assert.Error(t, err)
}

func TestMalformedTokenRejected(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := ParseToken(token, testSecret)
		assert.Error(t, err, "token %q", token)
	}
}
