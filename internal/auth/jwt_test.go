package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-secret-key-for-testing-purposes", 15*time.Minute)
}

func TestJWTService_GenerateToken_Success(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateToken(123, "test@example.com", RoleCustomer)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
}

func TestJWTService_ValidateToken_Valid(t *testing.T) {
	service := newTestJWTService()

	token, _, err := service.GenerateToken(456, "seller@example.com", RoleSeller)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, 456, claims.UserID)
	assert.Equal(t, "seller@example.com", claims.Email)
	assert.Equal(t, RoleSeller, claims.Role)
	assert.Equal(t, "456", claims.Subject)
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := NewJWTService("test-secret-key-for-testing-purposes", -1*time.Minute)

	token, _, err := service.GenerateToken(123, "test@example.com", RoleCustomer)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_ValidateToken_WrongSecret(t *testing.T) {
	service := newTestJWTService()
	other := NewJWTService("a-completely-different-secret-key!!", 15*time.Minute)

	token, _, err := service.GenerateToken(123, "test@example.com", RoleCustomer)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateToken_Garbage(t *testing.T) {
	service := newTestJWTService()

	_, err := service.ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}
