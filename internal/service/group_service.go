package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository"
	"github.com/dom/courier-backend/internal/validation"
)

type GroupService struct {
	uowFactory repository.UnitOfWorkFactory
	notifier   notify.Notifier
}

func NewGroupService(uowFactory repository.UnitOfWorkFactory, notifier notify.Notifier) *GroupService {
	return &GroupService{uowFactory: uowFactory, notifier: notifier}
}

type CreateGroupInput struct {
	CreatorID   uuid.UUID
	Name        string
	Description string
	IsPrivate   bool
	// Shortname is required for public groups and forbidden for private ones:
	// a group carries a mention exactly when it is public.
	Shortname string
}

func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.Chat, error) {
	if err := validation.GroupName(input.Name); err != nil {
		return nil, err
	}
	if input.IsPrivate && input.Shortname != "" {
		return nil, domain.ValidationError("shortname", "a private group cannot have a shortname")
	}
	if !input.IsPrivate {
		if err := validation.Shortname(input.Shortname); err != nil {
			return nil, err
		}
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

	if !input.IsPrivate {
		taken, err := uow.Mentions().ExistsByShortname(ctx, input.Shortname)
		if err != nil {
			return nil, fail(ctx, uow, err)
		}
		if taken {
			return nil, fail(ctx, uow, domain.ErrShortnameTaken.With("shortname", input.Shortname))
		}
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:          uuid.New(),
		Type:        domain.ChatTypeGroup,
		Name:        input.Name,
		Description: input.Description,
		IsPrivate:   input.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	uow.Chats().Add(chat)
	uow.ChatMembers().Add(&domain.ChatMember{
		ChatID:   chat.ID,
		UserID:   creator.ID,
		Role:     domain.RoleCreator,
		JoinedAt: now,
	})
	if !input.IsPrivate {
		uow.Mentions().Add(&domain.Mention{
			ID:        uuid.New(),
			Shortname: input.Shortname,
			OwnerKind: domain.MentionKindChat,
			OwnerID:   chat.ID,
			CreatedAt: now,
		})
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.GroupCreated{
		ChatID:    chat.ID,
		Name:      chat.Name,
		CreatorID: creator.ID,
		Shortname: input.Shortname,
		MemberIDs: []uuid.UUID{creator.ID},
	})
	return chat, nil
}

type UpdateGroupInput struct {
	CallerID    uuid.UUID
	ChatID      uuid.UUID
	Name        string
	Description string
	// Shortname, when set on a public group, moves the group's mention. The
	// availability check excludes the group's own current mention.
	Shortname *string
}

func (s *GroupService) UpdateGroup(ctx context.Context, input UpdateGroupInput) (*domain.Chat, error) {
	if err := validation.GroupName(input.Name); err != nil {
		return nil, err
	}
	if input.Shortname != nil {
		if err := validation.Shortname(*input.Shortname); err != nil {
			return nil, err
		}
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	chat, _, err := s.loadGroupForRole(ctx, uow, input.CallerID, input.ChatID, domain.RoleAdmin)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	if input.Shortname != nil {
		if chat.IsPrivate {
			return nil, fail(ctx, uow, domain.ErrGroupPrivate)
		}
		mention, err := uow.Mentions().GetByOwner(ctx, domain.MentionKindChat, chat.ID)
		if err != nil {
			return nil, fail(ctx, uow, err)
		}
		if mention.Shortname != *input.Shortname {
			taken, err := uow.Mentions().ExistsByShortname(ctx, *input.Shortname)
			if err != nil {
				return nil, fail(ctx, uow, err)
			}
			if taken {
				return nil, fail(ctx, uow, domain.ErrShortnameTaken.With("shortname", *input.Shortname))
			}
			mention.Shortname = *input.Shortname
			uow.Mentions().Update(mention)
		}
	}

	chat.Name = input.Name
	chat.Description = input.Description
	chat.UpdatedAt = time.Now()
	uow.Chats().Update(chat)

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.GroupUpdated{
		ChatID:    chat.ID,
		Name:      chat.Name,
		IsPrivate: chat.IsPrivate,
		MemberIDs: memberIDs,
	})
	return chat, nil
}

type DeleteGroupInput struct {
	CallerID uuid.UUID
	ChatID   uuid.UUID
}

// DeleteGroup soft-deletes a group. Only the creator may delete, and only
// group chats qualify; the group's mention (if public) is removed first so
// the shortname is freed immediately.
func (s *GroupService) DeleteGroup(ctx context.Context, input DeleteGroupInput) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	chat, _, err := s.loadGroupForRole(ctx, uow, input.CallerID, input.ChatID, domain.RoleCreator)
	if err != nil {
		return fail(ctx, uow, err)
	}

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	if !chat.IsPrivate {
		mention, err := uow.Mentions().GetByOwner(ctx, domain.MentionKindChat, chat.ID)
		if err != nil && !errors.Is(err, domain.ErrMentionNotFound) {
			return fail(ctx, uow, err)
		}
		if mention != nil {
			uow.Mentions().Delete(mention)
		}
	}
	uow.Chats().Delete(chat)

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.GroupDeleted{ChatID: chat.ID, MemberIDs: memberIDs})
	return nil
}

type MakePublicGroupInput struct {
	CallerID  uuid.UUID
	ChatID    uuid.UUID
	Shortname string
}

// MakePublicGroup flips a private group public, claiming a shortname for it.
func (s *GroupService) MakePublicGroup(ctx context.Context, input MakePublicGroupInput) error {
	if err := validation.Shortname(input.Shortname); err != nil {
		return err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	chat, _, err := s.loadGroupForRole(ctx, uow, input.CallerID, input.ChatID, domain.RoleCreator)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if !chat.IsPrivate {
		return fail(ctx, uow, domain.ErrGroupAlreadyPublic)
	}

	taken, err := uow.Mentions().ExistsByShortname(ctx, input.Shortname)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if taken {
		return fail(ctx, uow, domain.ErrShortnameTaken.With("shortname", input.Shortname))
	}

	chat.IsPrivate = false
	chat.UpdatedAt = time.Now()
	uow.Chats().Update(chat)
	uow.Mentions().Add(&domain.Mention{
		ID:        uuid.New(),
		Shortname: input.Shortname,
		OwnerKind: domain.MentionKindChat,
		OwnerID:   chat.ID,
		CreatedAt: time.Now(),
	})

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.GroupUpdated{
		ChatID:    chat.ID,
		Name:      chat.Name,
		IsPrivate: false,
		MemberIDs: memberIDs,
	})
	return nil
}

type MakePrivateGroupInput struct {
	CallerID uuid.UUID
	ChatID   uuid.UUID
}

// MakePrivateGroup flips a public group private and releases its shortname.
func (s *GroupService) MakePrivateGroup(ctx context.Context, input MakePrivateGroupInput) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	chat, _, err := s.loadGroupForRole(ctx, uow, input.CallerID, input.ChatID, domain.RoleCreator)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if chat.IsPrivate {
		return fail(ctx, uow, domain.ErrGroupAlreadyPrivate)
	}

	mention, err := uow.Mentions().GetByOwner(ctx, domain.MentionKindChat, chat.ID)
	if err != nil && !errors.Is(err, domain.ErrMentionNotFound) {
		return fail(ctx, uow, err)
	}
	if mention != nil {
		uow.Mentions().Delete(mention)
	}

	chat.IsPrivate = true
	chat.UpdatedAt = time.Now()
	uow.Chats().Update(chat)

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.GroupUpdated{
		ChatID:    chat.ID,
		Name:      chat.Name,
		IsPrivate: true,
		MemberIDs: memberIDs,
	})
	return nil
}

type JoinGroupInput struct {
	UserID uuid.UUID
	ChatID uuid.UUID
}

// JoinGroup adds the caller to a public group. A membership soft-deleted by
// an earlier leave is revived rather than duplicated.
func (s *GroupService) JoinGroup(ctx context.Context, input JoinGroupInput) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	user, err := uow.Users().GetByID(ctx, input.UserID)
	if err != nil {
		return fail(ctx, uow, err)
	}
	chat, err := uow.Chats().GetByID(ctx, input.ChatID)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if !chat.IsGroup() {
		return fail(ctx, uow, domain.ErrNotGroupChat)
	}
	if chat.IsPrivate {
		return fail(ctx, uow, domain.ErrGroupPrivate)
	}

	now := time.Now()
	existing, err := uow.ChatMembers().GetByIDsUnfiltered(ctx, chat.ID, user.ID)
	switch {
	case err == nil && !existing.IsDeleted:
		return fail(ctx, uow, domain.ErrAlreadyMember)
	case err == nil:
		existing.IsDeleted = false
		existing.Role = domain.RoleMember
		existing.JoinedAt = now
		uow.ChatMembers().Update(existing)
	case errors.Is(err, domain.ErrMembershipNotFound):
		uow.ChatMembers().Add(&domain.ChatMember{
			ChatID:   chat.ID,
			UserID:   user.ID,
			Role:     domain.RoleMember,
			JoinedAt: now,
		})
	default:
		return fail(ctx, uow, err)
	}

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return fail(ctx, uow, err)
	}
	memberIDs = append(memberIDs, user.ID)

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.MemberJoined{ChatID: chat.ID, UserID: user.ID, MemberIDs: memberIDs})
	return nil
}

type LeaveGroupInput struct {
	UserID uuid.UUID
	ChatID uuid.UUID
}

// LeaveGroup soft-deletes the caller's membership. The creator cannot leave;
// the group must be deleted instead.
func (s *GroupService) LeaveGroup(ctx context.Context, input LeaveGroupInput) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	if _, err := uow.Users().GetByID(ctx, input.UserID); err != nil {
		return fail(ctx, uow, err)
	}
	chat, err := uow.Chats().GetByID(ctx, input.ChatID)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if !chat.IsGroup() {
		return fail(ctx, uow, domain.ErrNotGroupChat)
	}

	member, err := uow.ChatMembers().GetByIDs(ctx, chat.ID, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return fail(ctx, uow, domain.ErrNotMember)
		}
		return fail(ctx, uow, err)
	}
	if member.Role == domain.RoleCreator {
		return fail(ctx, uow, domain.ErrCreatorCannotLeave)
	}

	uow.ChatMembers().Delete(member)

	memberIDs, err := uow.ChatMembers().MemberIDs(ctx, chat.ID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.MemberLeft{ChatID: chat.ID, UserID: input.UserID, MemberIDs: memberIDs})
	return nil
}

// GetByShortname resolves a public group by its mention.
func (s *GroupService) GetByShortname(ctx context.Context, shortname string) (*domain.Chat, error) {
	if err := validation.Shortname(shortname); err != nil {
		return nil, err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	mention, err := uow.Mentions().GetByShortname(ctx, shortname)
	if err != nil {
		return nil, err
	}
	if mention.OwnerKind != domain.MentionKindChat {
		return nil, domain.ErrChatNotFound.With("shortname", shortname)
	}
	return uow.Chats().GetByID(ctx, mention.OwnerID)
}

// loadGroupForRole runs the fixed load order shared by the group mutations:
// caller, then chat, then membership, then the role gate. Membership absence
// is reported as an authorization failure, not a lookup failure.
func (s *GroupService) loadGroupForRole(
	ctx context.Context,
	uow repository.UnitOfWork,
	callerID, chatID uuid.UUID,
	required domain.MemberRole,
) (*domain.Chat, *domain.ChatMember, error) {
	if _, err := uow.Users().GetByID(ctx, callerID); err != nil {
		return nil, nil, err
	}
	chat, err := uow.Chats().GetByID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.IsGroup() {
		return nil, nil, domain.ErrNotGroupChat
	}
	member, err := uow.ChatMembers().GetByIDs(ctx, chat.ID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return nil, nil, domain.ErrNotMember
		}
		return nil, nil, err
	}
	if !member.HasAuthorityOf(required) {
		return nil, nil, domain.ErrInsufficientRole.With("required", string(required))
	}
	return chat, member, nil
}
