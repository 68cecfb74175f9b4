package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParse(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id":  userID.String(),
		"role":     "PROVIDER",
		"approved": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	principal, err := NewParser(testSecret).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, "PROVIDER", principal.Role)
	assert.True(t, principal.Approved)
	assert.True(t, principal.IsProvider())
	assert.False(t, principal.IsAdmin())
}

func TestParseWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": uuid.New().String(),
	})

	_, err := NewParser(testSecret).Parse(token)
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := NewParser(testSecret).Parse(token)
	assert.Error(t, err)
}

func TestParseBadUserID(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "not-a-uuid",
	})

	_, err := NewParser(testSecret).Parse(token)
	assert.Error(t, err)
}
