package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/auth"
	"github.com/dom/courier-backend/internal/config"
	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository"
	"github.com/dom/courier-backend/internal/validation"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

type AuthService struct {
	uowFactory  repository.UnitOfWorkFactory
	credentials *auth.CredentialService
	tokens      *auth.TokenService
	email       notify.EmailSender
	notifier    notify.Notifier
	cfg         *config.Config
}

func NewAuthService(
	uowFactory repository.UnitOfWorkFactory,
	credentials *auth.CredentialService,
	tokens *auth.TokenService,
	email notify.EmailSender,
	notifier notify.Notifier,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		uowFactory:  uowFactory,
		credentials: credentials,
		tokens:      tokens,
		email:       email,
		notifier:    notifier,
		cfg:         cfg,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Shortname string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := validation.Email(input.Email); err != nil {
		return nil, err
	}
	if err := validation.Password(input.Password); err != nil {
		return nil, err
	}
	if err := validation.FirstName(input.FirstName); err != nil {
		return nil, err
	}
	if err := validation.Shortname(input.Shortname); err != nil {
		return nil, err
	}

	passwordHash, err := s.credentials.HashPassword(input.Password)
	if err != nil {
		return nil, domain.ErrPersistence.Wrap(err)
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	if _, err := uow.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, fail(ctx, uow, domain.ErrEmailTaken)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fail(ctx, uow, err)
	}

	taken, err := uow.Mentions().ExistsByShortname(ctx, input.Shortname)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}
	if taken {
		return nil, fail(ctx, uow, domain.ErrShortnameTaken.With("shortname", input.Shortname))
	}

	now := time.Now()
	confirmationExpiry := now.Add(time.Duration(s.cfg.ConfirmationTTLHours) * time.Hour)
	user := &domain.User{
		ID:                    uuid.New(),
		Email:                 input.Email,
		PasswordHash:          passwordHash,
		FirstName:             input.FirstName,
		LastName:              input.LastName,
		Status:                domain.UserStatusOffline,
		ConfirmationToken:     randomConfirmationToken(),
		ConfirmationExpiresAt: &confirmationExpiry,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	uow.Users().Add(user)
	uow.Mentions().Add(&domain.Mention{
		ID:        uuid.New(),
		Shortname: input.Shortname,
		OwnerKind: domain.MentionKindUser,
		OwnerID:   user.ID,
		CreatedAt: now,
	})

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	if err := s.email.SendEmail(user.Email, "Confirm your email",
		fmt.Sprintf("Your confirmation token: %s", user.ConfirmationToken)); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("auth: confirmation email failed")
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, domain.ValidationError("credentials", "email and password are required")
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	user, err := uow.Users().GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fail(ctx, uow, domain.ErrInvalidCredentials)
		}
		return nil, fail(ctx, uow, err)
	}

	now := time.Now()
	if user.IsLockedOut(now) {
		return nil, fail(ctx, uow, domain.ErrUserLockedOut)
	}
	if !user.EmailConfirmed {
		return nil, fail(ctx, uow, domain.ErrUserNotConfirmed)
	}

	if !s.credentials.VerifyPassword(input.Password, user.PasswordHash) {
		// The failed-attempt counter is committed even though the login
		// fails, so repeated bad passwords eventually lock the account.
		user.FailedLoginCount++
		if user.FailedLoginCount >= maxFailedLogins {
			lockout := now.Add(lockoutDuration)
			user.LockoutUntil = &lockout
			user.FailedLoginCount = 0
		}
		uow.Users().Update(user)
		if err := uow.CommitTransaction(ctx); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}

	user.FailedLoginCount = 0
	user.LockoutUntil = nil
	uow.Users().Update(user)

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fail(ctx, uow, domain.ErrPersistence.Wrap(err))
	}
	refreshToken := s.tokens.GenerateRefreshToken(user)
	uow.RefreshTokens().Add(refreshToken)

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.UserLoggedIn{UserID: user.ID})

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
	}, nil
}

type RefreshInput struct {
	RefreshToken string
}

func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*AuthResult, error) {
	if input.RefreshToken == "" {
		return nil, domain.ValidationError("refreshToken", "refresh token is required")
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return nil, err
	}

	existing, err := uow.RefreshTokens().GetByToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}
	if existing.IsRevoked {
		return nil, fail(ctx, uow, domain.ErrTokenRevoked)
	}
	if !existing.ExpiresAt.After(time.Now()) {
		return nil, fail(ctx, uow, domain.ErrTokenExpired)
	}

	user, err := uow.Users().GetByID(ctx, existing.UserID)
	if err != nil {
		return nil, fail(ctx, uow, err)
	}

	rotated := s.tokens.UpdateRefreshToken(existing)
	uow.RefreshTokens().Update(existing)
	uow.RefreshTokens().Add(rotated)

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fail(ctx, uow, domain.ErrPersistence.Wrap(err))
	}

	if err := uow.CommitTransaction(ctx); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: rotated.Token,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	if _, err := uow.Users().GetByID(ctx, userID); err != nil {
		return fail(ctx, uow, err)
	}

	uow.RefreshTokens().DeleteByUserID(userID)

	if err := uow.CommitTransaction(ctx); err != nil {
		return err
	}

	s.notifier.Publish(domain.UserLoggedOut{UserID: userID})
	return nil
}

// Sessions lists the caller's refresh-token sessions, newest first. Revoked
// rows stay listed until logout removes them, so a client can surface a
// rotation that it did not perform itself.
func (s *AuthService) Sessions(ctx context.Context, userID uuid.UUID) ([]*domain.RefreshToken, error) {
	uow := s.uowFactory.New()
	defer uow.Close()

	if _, err := uow.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return uow.RefreshTokens().GetByUserID(ctx, userID)
}

type ConfirmEmailInput struct {
	Token string
}

func (s *AuthService) ConfirmEmail(ctx context.Context, input ConfirmEmailInput) error {
	if input.Token == "" {
		return domain.ValidationError("token", "confirmation token is required")
	}

	uow := s.uowFactory.New()
	defer uow.Close()

	if err := uow.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		return err
	}

	user, err := uow.Users().GetByConfirmationToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fail(ctx, uow, domain.ErrConfirmationExpired)
		}
		return fail(ctx, uow, err)
	}
	if !user.ConfirmationValid(input.Token, time.Now()) {
		return fail(ctx, uow, domain.ErrConfirmationExpired)
	}

	user.EmailConfirmed = true
	user.ConfirmationToken = ""
	user.ConfirmationExpiresAt = nil
	uow.Users().Update(user)

	return uow.CommitTransaction(ctx)
}

func randomConfirmationToken() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
