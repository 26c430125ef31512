package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type ChatService struct {
	uowFactory repository.UnitOfWorkFactory
	notifier   notify.Notifier
}

func NewChatService(uowFactory repository.UnitOfWorkFactory, notifier notify.Notifier) *ChatService {
	return &ChatService{uowFactory: uowFactory, notifier: notifier}
}

type CreateOneToOneChatInput struct {
	CreatorID uuid.UUID
	PartnerID uuid.UUID
}

// CreateOneToOneChat creates the single chat for an unordered user pair. Both
// users must exist; a second chat for the same pair is a conflict regardless
// of argument order.
func (s *ChatService) CreateOneToOneChat(ctx context.Context, input CreateOneToOneChatInput) (*domain.Chat, error) {
	if input.CreatorID == input.PartnerID {
		return nil, domain.ValidationError("partnerId", "a one-to-one chat needs two distinct users")
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	creator, err := uow.Users().GetByID(ctx, input.CreatorID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}
	partner, err := uow.Users().GetByID(ctx, input.PartnerID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	existing, err := uow.Chats().FindOneToOneChat(ctx, creator.ID, partner.ID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}
	if existing != nil {
		return nil, fail(ctx, uow, domain.ErrChatAlreadyExists.With("chatId", existing.ID.String()))
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:        uuid.New(),
		Type:      domain.ChatTypeOneToOne,
		IsPrivate: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	uow.Chats().Add(chat)
	uow.ChatMembers().Add(&domain.ChatMember{
		ChatID:   chat.ID,
		UserID:   creator.ID,
		Role:     domain.RoleMember,
		JoinedAt: now,
	})
	uow.ChatMembers().Add(&domain.ChatMember{
		ChatID:   chat.ID,
		UserID:   partner.ID,
		Role:     domain.RoleMember,
		JoinedAt: now,
	})

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.ChatCreated{
		ChatID:    chat.ID,
		Type:      chat.Type,
		MemberIDs: []uuid.UUID{creator.ID, partner.ID},
		CreatedAt: now,
	})
	return chat, nil
}

// CreatePersonalChat creates the caller's saved-messages chat; at most one
// exists per user.
func (s *ChatService) CreatePersonalChat(ctx context.Context, userID uuid.UUID) (*domain.Chat, error) {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	user, err := uow.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	existing, err := uow.Chats().FindPersonalChat(ctx, user.ID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}
	if existing != nil {
		return nil, fail(ctx, uow, domain.ErrChatAlreadyExists.With("chatId", existing.ID.String()))
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:        uuid.New(),
		Type:      domain.ChatTypePersonal,
		IsPrivate: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	uow.Chats().Add(chat)
	uow.ChatMembers().Add(&domain.ChatMember{
		ChatID:   chat.ID,
		UserID:   user.ID,
		Role:     domain.RoleCreator,
		JoinedAt: now,
	})

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.ChatCreated{
		ChatID:    chat.ID,
		Type:      chat.Type,
		MemberIDs: []uuid.UUID{user.ID},
		CreatedAt: now,
	})
	return chat, nil
}

// GetUserChats pages the caller's chats, most recent activity first.
func (s *ChatService) GetUserChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Chat, error) {
	limit = clampPageSize(limit)
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if _, err := uow.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return uow.Chats().GetUserChats(ctx, userID, limit, offset)
}

// GetChat returns a chat the caller belongs to.
func (s *ChatService) GetChat(ctx context.Context, callerID, chatID uuid.UUID) (*domain.Chat, error) {
	uow := s.uowFactory.New()
	defer uow.Close()

	chat, err := uow.Chats().GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := uow.ChatMembers().GetByIDs(ctx, chat.ID, callerID); err != nil {
		return nil, domain.ErrNotMember
	}

	members, err := uow.ChatMembers().GetChatMembers(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	chat.Members = make([]domain.ChatMember, 0, len(members))
	for _, m := range members {
		chat.Members = append(chat.Members, *m)
	}
	return chat, nil
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
