package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

type userRepository struct {
	u *unitOfWork
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.u.conn().WithContext(ctx).
		First(&user, "id = ? AND is_deleted = false", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound.With("id", id.String())
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.u.conn().WithContext(ctx).
		First(&user, "email = ? AND is_deleted = false", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	err := r.u.conn().WithContext(ctx).
		First(&user, "confirmation_token = ? AND is_deleted = false", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) Add(user *domain.User) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(user)
		return res.RowsAffected, res.Error
	})
}

func (r *userRepository) Update(user *domain.User) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Save(user)
		return res.RowsAffected, res.Error
	})
}

func (r *userRepository) Delete(user *domain.User) {
	user.IsDeleted = true
	r.Update(user)
}
