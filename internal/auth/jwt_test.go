// TrustGuardianHub | 2026
// jwt_test.go

package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/config"
	"github.com/trustguardianhub/backend/internal/core"
)

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "jwt_private.pem")
	publicPath := filepath.Join(dir, "jwt_public.pem")
	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	manager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "trustguardianhub",
		Audience:           "trustguardianhub-api",
	})
	require.NoError(t, err)
	return manager
}

func TestAccessTokenRoundtrip(t *testing.T) {
	manager := newTestJWTManager(t)

	signed, err := manager.CreateAccessToken(AccessTokenClaims{
		UserID:       "u123456789",
		Username:     "jane",
		Email:        "jane@example.com",
		Role:         "user",
		Tier:         "STANDARD",
		TokenVersion: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := manager.VerifyAccessToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "u123456789", claims.UserID)
	assert.Equal(t, "jane", claims.Username)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "STANDARD", claims.Tier)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	manager := newTestJWTManager(t)

	_, err := manager.VerifyAccessToken(
		context.Background(),
		"not.a.token",
	)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyRejectsTokenFromDifferentKey(t *testing.T) {
	issuer := newTestJWTManager(t)
	verifier := newTestJWTManager(t)

	signed, err := issuer.CreateAccessToken(AccessTokenClaims{
		UserID: "u1",
		Role:   "user",
		Tier:   "FREE",
	})
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(context.Background(), signed)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshTokenDataCarriesFamily(t *testing.T) {
	manager := newTestJWTManager(t)

	first, err := manager.CreateRefreshToken("u1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, first.FamilyID)
	assert.True(t, first.ExpiresAt.After(time.Now()))
	assert.True(t, manager.VerifyRefreshTokenHash(first.Token, first.Hash))

	rotated, err := manager.CreateRefreshToken("u1", first.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, first.FamilyID, rotated.FamilyID)
	assert.NotEqual(t, first.Token, rotated.Token)
}
