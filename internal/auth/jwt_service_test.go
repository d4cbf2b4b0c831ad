package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medlabs/critalert/internal/models"
)

func newTestJWTService(t *testing.T, clock func() time.Time) *JWTService {
	t.Helper()

	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Issuer: "critalert-test",
		Clock:  clock,
	})
	require.NoError(t, err)
	return svc
}

func testUser() *models.User {
	return &models.User{ID: "dr.sara", Name: "Dr. Sara", Role: models.RoleReceiver}
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}

func TestGeneratePairAndValidate(t *testing.T) {
	svc := newTestJWTService(t, nil)

	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "dr.sara", claims.UserID)
	require.Equal(t, string(models.RoleReceiver), claims.Role)
	require.Equal(t, "Dr. Sara", claims.Name)
	require.Equal(t, TokenTypeAccess, claims.TokenType)
	require.Equal(t, "critalert-test", claims.Issuer)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestTokenTypeIsEnforced(t *testing.T) {
	svc := newTestJWTService(t, nil)

	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	// A refresh token must not pass access validation, or vice versa.
	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	require.Error(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	require.Error(t, err)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	current := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService(t, func() time.Time { return current })

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.NoError(t, err)

	current = current.Add(DefaultAccessTokenTTL + time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestTokensFromWrongIssuerOrSecretAreRejected(t *testing.T) {
	svc := newTestJWTService(t, nil)

	other, err := NewJWTService(JWTConfig{Secret: "other-secret", Issuer: "critalert-test"})
	require.NoError(t, err)
	foreign, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(foreign)
	require.Error(t, err)

	impostor, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)
	wrongIssuer, err := impostor.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(wrongIssuer)
	require.Error(t, err)

	_, err = svc.ValidateAccessToken("")
	require.Error(t, err)
	_, err = svc.ValidateAccessToken("not-a-token")
	require.Error(t, err)
}

func TestGenerateRequiresUser(t *testing.T) {
	svc := newTestJWTService(t, nil)

	_, err := svc.GeneratePair(nil)
	require.Error(t, err)

	_, err = svc.GenerateAccessToken(&models.User{})
	require.Error(t, err)
}
