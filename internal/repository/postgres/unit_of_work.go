package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/repository"
)

// pgUniqueViolation is the postgres SQLSTATE for a unique constraint breach.
const pgUniqueViolation = "23505"

// pendingOp is one staged mutation, executed against the transaction at
// SaveChanges time. It reports the rows it affected.
type pendingOp func(tx *gorm.DB) (int64, error)

// unitOfWork binds one transaction to one memoized set of repositories.
// Not safe for concurrent use; construct one per request via the Factory.
type unitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	pending []pendingOp

	users         repository.UserRepository
	chats         repository.ChatRepository
	chatMembers   repository.ChatMemberRepository
	mentions      repository.MentionRepository
	messages      repository.MessageRepository
	refreshTokens repository.RefreshTokenRepository
}

func NewUnitOfWork(db *gorm.DB) repository.UnitOfWork {
	if db == nil {
		panic("postgres: NewUnitOfWork called with nil db")
	}
	return &unitOfWork{db: db}
}

// Factory mints per-request units of work bound to a shared connection pool.
type Factory struct {
	db *gorm.DB
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

func (f *Factory) New() repository.UnitOfWork {
	return NewUnitOfWork(f.db)
}

// conn returns the active transaction, or the base connection for reads
// performed outside one.
func (u *unitOfWork) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *unitOfWork) stage(op pendingOp) {
	u.pending = append(u.pending, op)
}

func (u *unitOfWork) BeginTransaction(ctx context.Context, isolation sql.IsolationLevel) error {
	if u.tx != nil {
		return domain.ErrInvalidTransactionState.With("reason", "transaction already active")
	}
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted
	}
	tx := u.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: isolation})
	if tx.Error != nil {
		return domain.ErrPersistence.Wrap(tx.Error)
	}
	u.tx = tx
	return nil
}

func (u *unitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	if u.tx == nil {
		return 0, domain.ErrInvalidTransactionState.With("reason", "no active transaction")
	}
	if err := ctx.Err(); err != nil {
		return 0, domain.ErrPersistence.Wrap(err)
	}
	var affected int64
	tx := u.tx.WithContext(ctx)
	for _, op := range u.pending {
		n, err := op(tx)
		if err != nil {
			return affected, translateError(err)
		}
		affected += n
	}
	u.pending = nil
	return affected, nil
}

func (u *unitOfWork) CommitTransaction(ctx context.Context) error {
	if u.tx == nil {
		return domain.ErrInvalidTransactionState.With("reason", "no active transaction")
	}
	if _, err := u.SaveChanges(ctx); err != nil {
		_ = u.RollbackTransaction(ctx)
		return err
	}
	if err := u.tx.Commit().Error; err != nil {
		_ = u.RollbackTransaction(ctx)
		return translateError(err)
	}
	u.tx = nil
	return nil
}

func (u *unitOfWork) RollbackTransaction(_ context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		// A rollback failure must not mask the error that caused it.
		log.Warn().Err(err).Msg("unit of work: rollback failed")
	}
	u.tx = nil
	u.pending = nil
	return nil
}

func (u *unitOfWork) Close() error {
	return u.RollbackTransaction(context.Background())
}

func (u *unitOfWork) Users() repository.UserRepository {
	if u.users == nil {
		u.users = &userRepository{u: u}
	}
	return u.users
}

func (u *unitOfWork) Chats() repository.ChatRepository {
	if u.chats == nil {
		u.chats = &chatRepository{u: u}
	}
	return u.chats
}

func (u *unitOfWork) ChatMembers() repository.ChatMemberRepository {
	if u.chatMembers == nil {
		u.chatMembers = &chatMemberRepository{u: u}
	}
	return u.chatMembers
}

func (u *unitOfWork) Mentions() repository.MentionRepository {
	if u.mentions == nil {
		u.mentions = &mentionRepository{u: u}
	}
	return u.mentions
}

func (u *unitOfWork) Messages() repository.MessageRepository {
	if u.messages == nil {
		u.messages = &messageRepository{u: u}
	}
	return u.messages
}

func (u *unitOfWork) RefreshTokens() repository.RefreshTokenRepository {
	if u.refreshTokens == nil {
		u.refreshTokens = &refreshTokenRepository{u: u}
	}
	return u.refreshTokens
}

// translateError maps driver errors onto the domain taxonomy. Unique
// violations become conflicts so handlers can report them as such.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrConflict.With("constraint", pgErr.ConstraintName).Wrap(err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict.Wrap(err)
	}
	return domain.ErrPersistence.Wrap(err)
}
