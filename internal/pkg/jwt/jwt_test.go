package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_Claims(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, expiresAt, err := svc.GenerateAccessToken("emp-1", employee.RoleSupervisor)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	id, _ := decoded.Get("employee_id")
	role, _ := decoded.Get("role")
	typ, _ := decoded.Get("type")
	assert.Equal(t, "emp-1", id)
	assert.Equal(t, "supervisor", role)
	assert.Equal(t, TokenTypeAccess, typ)
}

func TestAccessToken_BadExpiration(t *testing.T) {
	svc := NewJWTService("test-secret", "forever")
	_, _, err := svc.GenerateAccessToken("emp-1", employee.RoleEmployee)
	assert.Error(t, err)
}

func TestStreamToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, expiresIn, err := svc.GenerateStreamToken("emp-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	id, err := svc.ValidateStreamToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", id)

	t.Run("access tokens are not stream tokens", func(t *testing.T) {
		access, _, err := svc.GenerateAccessToken("emp-1", employee.RoleEmployee)
		require.NoError(t, err)
		_, err = svc.ValidateStreamToken(access)
		assert.Error(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		_, err := NewJWTService("other-secret", "1h").ValidateStreamToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewJWTService("test-secret", "1h").(*JWTService)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		stale, _, err := old.GenerateStreamToken("emp-1")
		require.NoError(t, err)
		_, err = svc.ValidateStreamToken(stale)
		assert.Error(t, err)
	})

	t.Run("revoked", func(t *testing.T) {
		svc.RevokeToken(token)
		assert.True(t, svc.IsTokenRevoked(token))
		_, err := svc.ValidateStreamToken(token)
		assert.Error(t, err)
	})
}
