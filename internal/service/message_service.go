package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository"
	"github.com/dom/courier-backend/internal/validation"
)

type MessageService struct {
	uowFactory repository.UnitOfWorkFactory
	notifier   notify.Notifier
}

func NewMessageService(uowFactory repository.UnitOfWorkFactory, notifier notify.Notifier) *MessageService {
	return &MessageService{uowFactory: uowFactory, notifier: notifier}
}

type SendMessageInput struct {
	AuthorID    uuid.UUID
	ChatID      uuid.UUID
	Text        string
	Attachments json.RawMessage
}

// SendMessage appends a message to a chat the author belongs to. The message
// id is the next value of the chat's own sequence; two concurrent sends
// racing for the same id resolve at the storage layer as a conflict for one
// of them.
func (s *MessageService) SendMessage(ctx context.Context, input SendMessageInput) (*domain.Message, error) {
	if err := validation.MessageText(input.Text); err != nil {
		return nil, err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	author, chat, err := s.loadMember(ctx, uow, input.AuthorID, input.ChatID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	messageID, err := uow.Messages().NextMessageID(ctx, chat.ID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	now := time.Now()
	message := &domain.Message{
		ChatID:    chat.ID,
		ID:        messageID,
		AuthorID:  author.ID,
		Text:      input.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(input.Attachments) > 0 {
		message.Attachments = datatypes.JSON(input.Attachments)
	}
	uow.Messages().Add(message)

	// Bump chat activity so GetUserChats orders by latest message.
	chat.UpdatedAt = now
	uow.Chats().Update(chat)

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.MessageSent{
		ChatID:    chat.ID,
		MessageID: message.ID,
		AuthorID:  author.ID,
		Text:      message.Text,
		MemberIDs: memberIDs,
	})
	return message, nil
}

type UpdateMessageInput struct {
	CallerID  uuid.UUID
	ChatID    uuid.UUID
	MessageID int64
	Text      string
}

// UpdateMessage edits a message. Only the original author may edit, and a
// soft-deleted message is no longer editable.
func (s *MessageService) UpdateMessage(ctx context.Context, input UpdateMessageInput) (*domain.Message, error) {
	if err := validation.MessageText(input.Text); err != nil {
		return nil, err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	caller, chat, err := s.loadMember(ctx, uow, input.CallerID, input.ChatID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	message, err := uow.Messages().GetByIDs(ctx, chat.ID, input.MessageID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}
	if message.AuthorID != caller.ID {
		return nil, fail(ctx, uow, domain.ErrNotAuthor)
	}

	message.Text = input.Text
	message.UpdatedAt = time.Now()
	uow.Messages().Update(message)

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.MessageUpdated{
		ChatID:    chat.ID,
		MessageID: message.ID,
		Text:      message.Text,
		MemberIDs: memberIDs,
	})
	return message, nil
}

type DeleteMessageInput struct {
	CallerID  uuid.UUID
	ChatID    uuid.UUID
	MessageID int64
}

// DeleteMessage soft-deletes a message; author-only, like UpdateMessage.
func (s *MessageService) DeleteMessage(ctx context.Context, input DeleteMessageInput) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	caller, chat, err := s.loadMember(ctx, uow, input.CallerID, input.ChatID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	message, err := uow.Messages().GetByIDs(ctx, chat.ID, input.MessageID)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if message.AuthorID != caller.ID {
		return fail(ctx, uow, domain.ErrNotAuthor)
	}

	uow.Messages().Delete(message)

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.MessageDeleted{
		ChatID:    chat.ID,
		MessageID: message.ID,
		MemberIDs: memberIDs,
	})
	return nil
}

type GetChatMessagesInput struct {
	CallerID uuid.UUID
	ChatID   uuid.UUID
	Limit    int
	Offset   int
}

// GetChatMessages pages a chat's messages newest-first; membership-gated.
func (s *MessageService) GetChatMessages(ctx context.Context, input GetChatMessagesInput) ([]*domain.Message, error) {
	limit := clampPageSize(input.Limit)
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if _, _, err := s.loadMember(ctx, uow, input.CallerID, input.ChatID); err != nil {
		return nil, err
	}
	return uow.Messages().GetChatMessages(ctx, input.ChatID, limit, offset)
}

// loadMember runs the fixed load order for message operations: user, then
// chat, then membership. A missing membership is an authorization failure.
func (s *MessageService) loadMember(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID, chatID uuid.UUID,
) (*domain.User, *domain.Chat, error) {
	user, err := uow.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	chat, err := uow.Chats().GetByID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := uow.ChatMembers().GetByIDs(ctx, chat.ID, user.ID); err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return nil, nil, domain.ErrNotMember
		}
		return nil, nil, err
	}
	return user, chat, nil
}
