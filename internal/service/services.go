package service

import (
	"context"

	"github.com/dom/courier-backend/internal/auth"
	"github.com/dom/courier-backend/internal/config"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository"
)

// Services bundles every use-case handler. Each method acquires a fresh
// UnitOfWork from the factory, so a Services value is safe to share across
// requests.
type Services struct {
	Auth    *AuthService
	User    *UserService
	Chat    *ChatService
	Group   *GroupService
	Message *MessageService
}

func NewServices(
	factory repository.UnitOfWorkFactory,
	credentials *auth.CredentialService,
	tokens *auth.TokenService,
	email notify.EmailSender,
	notifier notify.Notifier,
	presence PresenceChecker,
	cfg *config.Config,
) *Services {
	return &Services{
		Auth:    NewAuthService(factory, credentials, tokens, email, notifier, cfg),
		User:    NewUserService(factory, notifier, presence),
		Chat:    NewChatService(factory, notifier),
		Group:   NewGroupService(factory, notifier),
		Message: NewMessageService(factory, notifier),
	}
}

// fail rolls the active transaction back (best effort) and passes err through
// unchanged. Every handler short-circuits through it after BeginTransaction.
func fail(ctx context.Context, uow repository.UnitOfWork, err error) error {
	_ = uow.RollbackTransaction(ctx)
	return err
}
