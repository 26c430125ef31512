package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

// Refresh tokens are hard-deleted; a revoked token keeps its row only until
// the owner logs out.
type refreshTokenRepository struct {
	u *unitOfWork
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var refreshToken domain.RefreshToken
	err := r.u.conn().WithContext(ctx).
		First(&refreshToken, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, translateError(err)
	}
	return &refreshToken, nil
}

func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.RefreshToken, error) {
	var tokens []*domain.RefreshToken
	err := r.u.conn().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, translateError(err)
	}
	return tokens, nil
}

func (r *refreshTokenRepository) Add(token *domain.RefreshToken) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(token)
		return res.RowsAffected, res.Error
	})
}

func (r *refreshTokenRepository) Update(token *domain.RefreshToken) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Save(token)
		return res.RowsAffected, res.Error
	})
}

func (r *refreshTokenRepository) Delete(token *domain.RefreshToken) {
	id := token.ID
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(&domain.RefreshToken{}, "id = ?", id)
		return res.RowsAffected, res.Error
	})
}

func (r *refreshTokenRepository) DeleteByUserID(userID uuid.UUID) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(&domain.RefreshToken{}, "user_id = ?", userID)
		return res.RowsAffected, res.Error
	})
}
