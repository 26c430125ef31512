package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dom/courier-backend/internal/domain"
)

// NewUser returns an unsaved user entity with unique credentials, for tests
// that stage the insert themselves.
func NewUser() *domain.User {
	suffix := uuid.New().String()[:8]
	now := time.Now()
	return &domain.User{
		ID:             uuid.New(),
		Email:          fmt.Sprintf("user_%s@example.com", suffix),
		PasswordHash:   "not-a-real-hash",
		FirstName:      "Test",
		Status:         domain.UserStatusOffline,
		EmailConfirmed: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email     string
	password  string
	firstName string
	shortname string
	confirmed bool
	deleted   bool
}

// NewUserBuilder creates a new UserBuilder with default values. Users are
// email-confirmed by default since most scenarios need a usable account.
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		email:     fmt.Sprintf("user_%s@example.com", suffix),
		password:  "testpassword123",
		firstName: "Test",
		shortname: fmt.Sprintf("user_%s", suffix),
		confirmed: true,
	}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithShortname(shortname string) *UserBuilder {
	b.shortname = shortname
	return b
}

func (b *UserBuilder) Unconfirmed() *UserBuilder {
	b.confirmed = false
	return b
}

func (b *UserBuilder) Deleted() *UserBuilder {
	b.deleted = true
	return b
}

// Build creates the user (and its mention) in the database and returns the
// user with the raw password.
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:             uuid.New(),
		Email:          b.email,
		PasswordHash:   string(hashedPassword),
		FirstName:      b.firstName,
		Status:         domain.UserStatusOffline,
		EmailConfirmed: b.confirmed,
		IsDeleted:      b.deleted,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	mention := &domain.Mention{
		ID:        uuid.New(),
		Shortname: b.shortname,
		OwnerKind: domain.MentionKindUser,
		OwnerID:   user.ID,
		CreatedAt: time.Now(),
	}
	if err := db.Create(mention).Error; err != nil {
		t.Fatalf("failed to create mention: %v", err)
	}

	return user, b.password
}

// CreateChat inserts a chat plus one membership row per user. The first user
// gets the Creator role for group chats.
func CreateChat(t *testing.T, db *gorm.DB, chatType domain.ChatType, userIDs ...uuid.UUID) *domain.Chat {
	t.Helper()

	now := time.Now()
	chat := &domain.Chat{
		ID:        uuid.New(),
		Type:      chatType,
		IsPrivate: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if chatType == domain.ChatTypeGroup {
		chat.Name = "test group"
	}
	if err := db.Create(chat).Error; err != nil {
		t.Fatalf("failed to create chat: %v", err)
	}

	for i, userID := range userIDs {
		role := domain.RoleMember
		if chatType == domain.ChatTypeGroup && i == 0 {
			role = domain.RoleCreator
		}
		member := &domain.ChatMember{
			ChatID:   chat.ID,
			UserID:   userID,
			Role:     role,
			JoinedAt: now,
		}
		if err := db.Create(member).Error; err != nil {
			t.Fatalf("failed to create chat member: %v", err)
		}
	}

	return chat
}

// CreateMessage inserts a message with the next sequence id for the chat.
func CreateMessage(t *testing.T, db *gorm.DB, chatID, authorID uuid.UUID, text string) *domain.Message {
	t.Helper()

	var max int64
	if err := db.Model(&domain.Message{}).
		Where("chat_id = ?", chatID).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max).Error; err != nil {
		t.Fatalf("failed to read message sequence: %v", err)
	}

	now := time.Now()
	message := &domain.Message{
		ChatID:    chatID,
		ID:        max + 1,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(message).Error; err != nil {
		t.Fatalf("failed to create message: %v", err)
	}
	return message
}
