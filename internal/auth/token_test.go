package auth

import (
	"testing"
	"time"

	"internship-service/internal/identity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, expiresAt, err := svc.Issue(7, "asha@example.com", identity.RoleIntern)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	p, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, identity.Principal{UserID: 7, Email: "asha@example.com", Role: identity.RoleIntern}, p)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.Issue(1, "a@example.com", identity.RoleMentor)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := NewTokenService("one", time.Hour).Issue(1, "a@example.com", identity.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_NormalizesLegacyRole(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _, err := svc.Issue(3, "s@example.com", identity.Role("Suspend"))
	require.NoError(t, err)

	p, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSuspended, p.Role)
}
