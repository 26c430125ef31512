package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dom/courier-backend/internal/domain"
)

// Every read filters soft-deleted rows unless the method name says otherwise.
// Mutations (Add/Update/Delete) never execute immediately: they are staged on
// the owning UnitOfWork and run at the next SaveChanges or CommitTransaction.

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error)
	Add(user *domain.User)
	Update(user *domain.User)
	// Delete soft-deletes the user.
	Delete(user *domain.User)
}

type ChatRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	// GetByIDUnfiltered also returns soft-deleted chats; administrative path.
	GetByIDUnfiltered(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	// FindOneToOneChat returns the chat both users belong to, or nil.
	FindOneToOneChat(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error)
	// FindPersonalChat returns the user's self chat, or nil.
	FindPersonalChat(ctx context.Context, userID uuid.UUID) (*domain.Chat, error)
	GetUserChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Chat, error)
	Add(chat *domain.Chat)
	Update(chat *domain.Chat)
	// Delete soft-deletes the chat.
	Delete(chat *domain.Chat)
}

type ChatMemberRepository interface {
	GetByIDs(ctx context.Context, chatID, userID uuid.UUID) (*domain.ChatMember, error)
	// GetByIDsUnfiltered also returns soft-deleted memberships, so a rejoin
	// can revive the original row.
	GetByIDsUnfiltered(ctx context.Context, chatID, userID uuid.UUID) (*domain.ChatMember, error)
	GetChatMembers(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatMember, error)
	MemberIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error)
	Add(member *domain.ChatMember)
	Update(member *domain.ChatMember)
	// Delete soft-deletes the membership.
	Delete(member *domain.ChatMember)
}

type MentionRepository interface {
	GetByShortname(ctx context.Context, shortname string) (*domain.Mention, error)
	GetByOwner(ctx context.Context, kind domain.MentionKind, ownerID uuid.UUID) (*domain.Mention, error)
	ExistsByShortname(ctx context.Context, shortname string) (bool, error)
	Add(mention *domain.Mention)
	Update(mention *domain.Mention)
	// Delete hard-deletes the mention, freeing the shortname.
	Delete(mention *domain.Mention)
}

type MessageRepository interface {
	GetByIDs(ctx context.Context, chatID uuid.UUID, messageID int64) (*domain.Message, error)
	// GetChatMessages pages newest-first.
	GetChatMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*domain.Message, error)
	// NextMessageID returns the next value of the per-chat sequence.
	NextMessageID(ctx context.Context, chatID uuid.UUID) (int64, error)
	Add(message *domain.Message)
	Update(message *domain.Message)
	// Delete soft-deletes the message.
	Delete(message *domain.Message)
}

type RefreshTokenRepository interface {
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.RefreshToken, error)
	Add(token *domain.RefreshToken)
	Update(token *domain.RefreshToken)
	// Delete hard-deletes the token row.
	Delete(token *domain.RefreshToken)
	// DeleteByUserID hard-deletes every token owned by the user.
	DeleteByUserID(userID uuid.UUID)
}

// UnitOfWork owns one transaction and the repositories scoped to it. The
// lifecycle is Idle → Active (BeginTransaction) → Committed/RolledBack → Idle.
// Instances are per-request values and are not safe for concurrent use.
type UnitOfWork interface {
	// BeginTransaction opens a transaction at the given isolation level.
	// Passing sql.LevelDefault selects read-committed. Fails with
	// INVALID_TRANSACTION_STATE if a transaction is already active.
	BeginTransaction(ctx context.Context, isolation sql.IsolationLevel) error

	// SaveChanges flushes staged mutations inside the active transaction and
	// returns the number of affected rows. Uniqueness violations surface as
	// conflict errors, not generic persistence failures.
	SaveChanges(ctx context.Context) (int64, error)

	// CommitTransaction runs SaveChanges then commits. Any failure rolls the
	// transaction back before the error is returned.
	CommitTransaction(ctx context.Context) error

	// RollbackTransaction discards the transaction and all staged mutations.
	// It is a no-op when no transaction is active.
	RollbackTransaction(ctx context.Context) error

	Users() UserRepository
	Chats() ChatRepository
	ChatMembers() ChatMemberRepository
	Mentions() MentionRepository
	Messages() MessageRepository
	RefreshTokens() RefreshTokenRepository

	// Close releases the transaction if one is still active. Safe to call
	// multiple times; intended for defer.
	Close() error
}

// UnitOfWorkFactory mints a fresh UnitOfWork per request.
type UnitOfWorkFactory interface {
	New() UnitOfWork
}
