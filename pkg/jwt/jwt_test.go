package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, expiresAt, err := m.GenerateSessionToken("3f1c", "a@b.com", "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1c", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
}

func TestManager_ValidateToken_Rejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	valid, _, err := m.GenerateSessionToken("u1", "a@b.com", "CUSTOMER")
	require.NoError(t, err)

	expired := NewManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.GenerateSessionToken("u1", "a@b.com", "CUSTOMER")
	require.NoError(t, err)

	otherSecret, _, err := NewManager("other-secret", time.Hour).GenerateSessionToken("u1", "a@b.com", "CUSTOMER")
	require.NoError(t, err)

	noneAlg, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{
		Role: "ADMIN",
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "expired", token: expiredToken},
		{name: "wrong secret", token: otherSecret},
		{name: "alg none", token: noneAlg},
		{name: "tampered", token: valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.ValidateToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestManager_TTL(t *testing.T) {
	assert.Equal(t, 45*time.Minute, NewManager("s", 45*time.Minute).TTL())
}
