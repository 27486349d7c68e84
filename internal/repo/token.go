package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	jwthelp "github.com/Skotchmaster/epinhell/internal/jwt"
	"github.com/Skotchmaster/epinhell/internal/models"
)

var ErrRefreshRevoked = errors.New("refresh token expired or revoked")

func (r *GormRepo) SaveRefreshToken(ctx context.Context, tok *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(tok).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var tok models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction. The old token
// must be live and must match rawOld, otherwise ErrRefreshRevoked.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, rawOld string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND token_hash = ? AND revoked = ? AND expires_at > ?",
				oldJTI, jwthelp.Sha256Hex(rawOld), false, time.Now().Unix()).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshRevoked
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token_hash = ?", jwthelp.Sha256Hex(rawToken)).
		Update("revoked", true).Error
}
