package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

type messageRepository struct {
	u *unitOfWork
}

func (r *messageRepository) GetByIDs(ctx context.Context, chatID uuid.UUID, messageID int64) (*domain.Message, error) {
	var message domain.Message
	err := r.u.conn().WithContext(ctx).
		First(&message, "chat_id = ? AND id = ? AND is_deleted = false", chatID, messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound.
				With("chatId", chatID.String()).
				With("messageId", messageID)
		}
		return nil, translateError(err)
	}
	return &message, nil
}

func (r *messageRepository) GetChatMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.u.conn().WithContext(ctx).
		Preload("Author").
		Where("chat_id = ? AND is_deleted = false", chatID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, translateError(err)
	}
	return messages, nil
}

// NextMessageID includes soft-deleted rows so the per-chat sequence never
// reuses an id.
func (r *messageRepository) NextMessageID(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var max int64
	err := r.u.conn().WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ?", chatID).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, translateError(err)
	}
	return max + 1, nil
}

func (r *messageRepository) Add(message *domain.Message) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(message)
		return res.RowsAffected, res.Error
	})
}

func (r *messageRepository) Update(message *domain.Message) {
	r.u.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Save(message)
		return res.RowsAffected, res.Error
	})
}

func (r *messageRepository) Delete(message *domain.Message) {
	message.IsDeleted = true
	r.Update(message)
}
