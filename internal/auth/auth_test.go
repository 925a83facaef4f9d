package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-backend/internal/config"
	"rent-backend/internal/models"
)

func testManager() *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 24
	cfg.JWT.Issuer = "rent-backend"
	return NewJWTManager(cfg)
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := testManager()
	token, err := m.GenerateToken(&models.User{ID: 7, TenantCode: "123456"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.False(t, claims.IsOwner)
	assert.Equal(t, "123456", claims.TenantCode)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := testManager().GenerateToken(&models.User{ID: 1, IsOwner: true})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT.Secret = "different"
	_, err = NewJWTManager(cfg).ValidateToken(token)
	assert.Error(t, err)
}

func TestTempTokenIsNotASessionToken(t *testing.T) {
	m := testManager()
	temp, err := m.GenerateTempToken(&models.User{ID: 3, IsOwner: true})
	require.NoError(t, err)

	claims, err := m.ValidateTempToken(temp)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UserID)

	session, err := m.GenerateToken(&models.User{ID: 3, IsOwner: true})
	require.NoError(t, err)
	_, err = m.ValidateTempToken(session)
	assert.Error(t, err)

	_, err = m.ValidateToken(temp)
	assert.EqualError(t, err, "invalid token type")
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestGenerateTenantPassword(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTenantPassword()
		require.NoError(t, err)
		require.Len(t, pw, TenantPasswordLength)
		assert.True(t, strings.ContainsAny(pw, lowerChars), pw)
		assert.True(t, strings.ContainsAny(pw, upperChars), pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), pw)
		assert.True(t, strings.ContainsAny(pw, specialChars), pw)
	}
}

func TestGenerateTenantCode(t *testing.T) {
	code, err := GenerateTenantCode()
	require.NoError(t, err)
	require.Len(t, code, TenantCodeLength)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}
