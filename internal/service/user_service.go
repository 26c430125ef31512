package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository"
	"github.com/dom/courier-backend/internal/validation"
)

// PresenceChecker reports whether a user currently holds an open connection.
type PresenceChecker interface {
	IsOnline(ctx context.Context, userID uuid.UUID) (bool, error)
}

type UserService struct {
	uowFactory repository.UnitOfWorkFactory
	notifier   notify.Notifier
	presence   PresenceChecker // optional
}

func NewUserService(uowFactory repository.UnitOfWorkFactory, notifier notify.Notifier, presence PresenceChecker) *UserService {
	return &UserService{uowFactory: uowFactory, notifier: notifier, presence: presence}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	uow := s.uowFactory.New()
	defer uow.Close()

	user, err := uow.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Online = s.online(ctx, user.ID)
	return user, nil
}

// GetByShortname resolves a user mention.
func (s *UserService) GetByShortname(ctx context.Context, shortname string) (*domain.User, error) {
	if err := validation.Shortname(shortname); err != nil {
		return nil, err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	mention, err := uow.Mentions().GetByShortname(ctx, shortname)
	if err != nil {
		return nil, err
	}
	if mention.OwnerKind != domain.MentionKindUser {
		return nil, domain.ErrUserNotFound.With("shortname", shortname)
	}
	user, err := uow.Users().GetByID(ctx, mention.OwnerID)
	if err != nil {
		return nil, err
	}
	user.Online = s.online(ctx, user.ID)
	return user, nil
}

// online resolves presence, treating an unavailable store as offline.
func (s *UserService) online(ctx context.Context, userID uuid.UUID) bool {
	if s.presence == nil {
		return false
	}
	on, err := s.presence.IsOnline(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID.String()).Msg("user: presence lookup failed")
		return false
	}
	return on
}

type UpdateShortnameInput struct {
	UserID    uuid.UUID
	Shortname string
}

// UpdateShortname moves the caller's mention to a new shortname. The new
// value must differ from the current one and be globally free.
func (s *UserService) UpdateShortname(ctx context.Context, input UpdateShortnameInput) error {
	if err := validation.Shortname(input.Shortname); err != nil {
		return err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	user, err := uow.Users().GetByID(ctx, input.UserID)
	if err != nil {
		return fail(ctx, uow, err)
	}

	mention, err := uow.Mentions().GetByOwner(ctx, domain.MentionKindUser, user.ID)
	if err != nil && !errors.Is(err, domain.ErrMentionNotFound) {
		return fail(ctx, uow, err)
	}

	if mention != nil {
		if mention.Shortname == input.Shortname {
			return fail(ctx, uow, domain.ErrShortnameUnchanged)
		}
		taken, err := uow.Mentions().ExistsByShortname(ctx, input.Shortname)
		if err != nil {
			return fail(ctx, uow, err)
		}
		if taken {
			return fail(ctx, uow, domain.ErrShortnameTaken.With("shortname", input.Shortname))
		}
		mention.Shortname = input.Shortname
		uow.Mentions().Update(mention)
	} else {
		// A user without a mention claims one fresh.
		taken, err := uow.Mentions().ExistsByShortname(ctx, input.Shortname)
		if err != nil {
			return fail(ctx, uow, err)
		}
		if taken {
			return fail(ctx, uow, domain.ErrShortnameTaken.With("shortname", input.Shortname))
		}
		uow.Mentions().Add(&domain.Mention{
			ID:        uuid.New(),
			Shortname: input.Shortname,
			OwnerKind: domain.MentionKindUser,
			OwnerID:   user.ID,
			CreatedAt: time.Now(),
		})
	}

	return uow.CommitTransaction(ctx)
}

type UpdateProfileInput struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Bio       string
}

func (s *UserService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	if err := validation.FirstName(input.FirstName); err != nil {
		return nil, err
	}
	if err := validation.Bio(input.Bio); err != nil {
		return nil, err
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	user, err := uow.Users().GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Bio = input.Bio
	user.UpdatedAt = time.Now()
	uow.Users().Update(user)

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify marks a user verified. Verification requires a confirmed email.
func (s *UserService) Verify(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	user, err := uow.Users().GetByID(ctx, userID)
	if err != nil {
		return fail(ctx, uow, err)
	}
	if !user.EmailConfirmed {
		return fail(ctx, uow, domain.ErrUserNotConfirmed)
	}
	if user.IsVerified {
		// Already verified; nothing to change.
		return uow.RollbackTransaction(ctx)
	}

	user.IsVerified = true
	uow.Users().Update(user)

	return uow.CommitTransaction(ctx)
}
