package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Skotchmaster/epinhell/internal/jwt"
	"github.com/Skotchmaster/epinhell/internal/models"
)

func refreshRow(raw, jti string, exp time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		UserID:    "user-1",
		Role:      models.RoleUser,
		TokenHash: jwthelp.Sha256Hex(raw),
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}
}

func TestToken_RotateRevokesOld(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, r.SaveRefreshToken(ctx, refreshRow("raw-1", "jti-1", exp)))

	require.NoError(t, r.RotateRefreshToken(ctx, "jti-1", "raw-1", refreshRow("raw-2", "jti-2", exp)))

	old, err := r.FindRefreshByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	err = r.RotateRefreshToken(ctx, "jti-1", "raw-1", refreshRow("raw-3", "jti-3", exp))
	assert.ErrorIs(t, err, ErrRefreshRevoked)

	_, err = r.FindRefreshByJTI(ctx, "jti-3")
	assert.Error(t, err)
}

func TestToken_RotateRejectsExpiredAndMismatched(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SaveRefreshToken(ctx, refreshRow("raw-old", "jti-old", time.Now().Add(-time.Minute))))
	err := r.RotateRefreshToken(ctx, "jti-old", "raw-old", refreshRow("n1", "n1", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrRefreshRevoked)

	require.NoError(t, r.SaveRefreshToken(ctx, refreshRow("raw-live", "jti-live", time.Now().Add(time.Hour))))
	err = r.RotateRefreshToken(ctx, "jti-live", "forged", refreshRow("n2", "n2", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestToken_Revoke(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SaveRefreshToken(ctx, refreshRow("raw", "jti", time.Now().Add(time.Hour))))
	require.NoError(t, r.RevokeRefreshToken(ctx, "raw"))

	tok, err := r.FindRefreshByJTI(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, tok.Revoked)
}

func TestUser_EnsureRoleIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, r.EnsureRole(ctx, models.RoleAdmin))
		require.NoError(t, r.EnsureRole(ctx, models.RoleUser))
	}

	roles, err := r.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleUser}, roles)
}
