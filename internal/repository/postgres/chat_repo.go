package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

type chatRepository struct {
	u *unitOfWork
}

func (r *chatRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.u.conn().WithContext(ctx).
		First(&chat, "id = ? AND is_deleted = false", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatNotFound.With("id", id.String())
		}
		return nil, translateError(err)
	}
	return &chat, nil
}

func (r *chatRepository) GetByIDUnfiltered(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.u.conn().WithContext(ctx).
		First(&chat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatNotFound.With("id", id.String())
		}
		return nil, translateError(err)
	}
	return &chat, nil
}

func (r *chatRepository) FindOneToOneChat(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.u.conn().WithContext(ctx).
		Joins("JOIN chat_members a ON a.chat_id = chats.id AND a.user_id = ? AND a.is_deleted = false", userA).
		Joins("JOIN chat_members b ON b.chat_id = chats.id AND b.user_id = ? AND b.is_deleted = false", userB).
		Where("chats.type = ? AND chats.is_deleted = false", domain.ChatTypeOneToOne).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &chat, nil
}

func (r *chatRepository) FindPersonalChat(ctx context.Context, userID uuid.UUID) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.u.conn().WithContext(ctx).
		Joins("JOIN chat_members m ON m.chat_id = chats.id AND m.user_id = ? AND m.is_deleted = false", userID).
		Where("chats.type = ? AND chats.is_deleted = false", domain.ChatTypePersonal).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &chat, nil
}

func (r *chatRepository) GetUserChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Chat, error) {
	var chats []*domain.Chat
	err := r.u.conn().WithContext(ctx).
		Joins("JOIN chat_members m ON m.chat_id = chats.id AND m.user_id = ? AND m.is_deleted = false", userID).
		Where("chats.is_deleted = false").
		Order("chats.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&chats).Error
	if err != nil {
		return nil, translateError(err)
	}
	return chats, nil
}

func (r *chatRepository) Add(chat *domain.Chat) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(chat)
		return res.RowsAffected, res.Error
	})
}

func (r *chatRepository) Update(chat *domain.Chat) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Save(chat)
		return res.RowsAffected, res.Error
	})
}

func (r *chatRepository) Delete(chat *domain.Chat) {
	chat.IsDeleted = true
	r.Update(chat)
}
