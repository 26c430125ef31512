package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

// Mentions have no soft-delete flag: releasing a shortname removes the row so
// the handle can be claimed again.
type mentionRepository struct {
	u *unitOfWork
}

func (r *mentionRepository) GetByShortname(ctx context.Context, shortname string) (*domain.Mention, error) {
	var mention domain.Mention
	err := r.u.conn().WithContext(ctx).
		First(&mention, "shortname = ?", shortname).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMentionNotFound.With("shortname", shortname)
		}
		return nil, translateError(err)
	}
	return &mention, nil
}

func (r *mentionRepository) GetByOwner(ctx context.Context, kind domain.MentionKind, ownerID uuid.UUID) (*domain.Mention, error) {
	var mention domain.Mention
	err := r.u.conn().WithContext(ctx).
		First(&mention, "owner_kind = ? AND owner_id = ?", kind, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMentionNotFound.With("ownerId", ownerID.String())
		}
		return nil, translateError(err)
	}
	return &mention, nil
}

func (r *mentionRepository) ExistsByShortname(ctx context.Context, shortname string) (bool, error) {
	var count int64
	err := r.u.conn().WithContext(ctx).
		Model(&domain.Mention{}).
		Where("shortname = ?", shortname).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *mentionRepository) Add(mention *domain.Mention) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(mention)
		return res.RowsAffected, res.Error
	})
}

func (r *mentionRepository) Update(mention *domain.Mention) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Save(mention)
		return res.RowsAffected, res.Error
	})
}

func (r *mentionRepository) Delete(mention *domain.Mention) {
	id := mention.ID
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(&domain.Mention{}, "id = ?", id)
		return res.RowsAffected, res.Error
	})
}
