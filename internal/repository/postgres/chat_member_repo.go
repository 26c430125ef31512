package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

type chatMemberRepository struct {
	u *unitOfWork
}

func (r *chatMemberRepository) GetByIDs(ctx context.Context, chatID, userID uuid.UUID) (*domain.ChatMember, error) {
	var member domain.ChatMember
	err := r.u.conn().WithContext(ctx).
		First(&member, "chat_id = ? AND user_id = ? AND is_deleted = false", chatID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound.
				With("chatId", chatID.String()).
				With("userId", userID.String())
		}
		return nil, translateError(err)
	}
	return &member, nil
}

func (r *chatMemberRepository) GetByIDsUnfiltered(ctx context.Context, chatID, userID uuid.UUID) (*domain.ChatMember, error) {
	var member domain.ChatMember
	err := r.u.conn().WithContext(ctx).
		First(&member, "chat_id = ? AND user_id = ?", chatID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound.
				With("chatId", chatID.String()).
				With("userId", userID.String())
		}
		return nil, translateError(err)
	}
	return &member, nil
}

func (r *chatMemberRepository) GetChatMembers(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatMember, error) {
	var members []*domain.ChatMember
	err := r.u.conn().WithContext(ctx).
		Preload("User").
		Where("chat_id = ? AND is_deleted = false", chatID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, translateError(err)
	}
	return members, nil
}

func (r *chatMemberRepository) MemberIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.u.conn().WithContext(ctx).
		Model(&domain.ChatMember{}).
		Where("chat_id = ? AND is_deleted = false", chatID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (r *chatMemberRepository) Add(member *domain.ChatMember) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(member)
		return res.RowsAffected, res.Error
	})
}

func (r *chatMemberRepository) Update(member *domain.ChatMember) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Save(member)
		return res.RowsAffected, res.Error
	})
}

func (r *chatMemberRepository) Delete(member *domain.ChatMember) {
	member.IsDeleted = true
	r.Update(member)
}
