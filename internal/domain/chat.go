package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatType discriminates the three chat shapes. Personal chats have a single
// member (saved messages), one-to-one chats exactly two, groups any number.
type ChatType string

const (
	ChatTypePersonal ChatType = "personal"
	ChatTypeOneToOne ChatType = "one_to_one"
	ChatTypeGroup    ChatType = "group"
)

// MemberRole orders group authority. Creator outranks Admin outranks Member.
type MemberRole string

const (
	RoleCreator MemberRole = "creator"
	RoleAdmin   MemberRole = "admin"
	RoleMember  MemberRole = "member"
)

type Chat struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type        ChatType  `json:"type" gorm:"type:varchar(20);not null;index"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPrivate   bool      `json:"isPrivate" gorm:"not null;default:true"`
	IsDeleted   bool      `json:"-" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Members  []ChatMember `json:"members,omitempty" gorm:"foreignKey:ChatID"`
	Messages []Message    `json:"-" gorm:"foreignKey:ChatID"`
}

func (Chat) TableName() string {
	return "chats"
}

// IsGroup reports whether role-gated group rules apply to this chat.
func (c *Chat) IsGroup() bool {
	return c.Type == ChatTypeGroup
}

// ChatMember is one user's membership in one chat. The pair (ChatID, UserID)
// is the identity; a soft-deleted row marks a former member and may be
// revived when the user rejoins.
type ChatMember struct {
	ChatID    uuid.UUID  `json:"chatId" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `json:"userId" gorm:"type:uuid;primaryKey"`
	Nickname  string     `json:"nickname"`
	Role      MemberRole `json:"role" gorm:"type:varchar(20);not null;default:'member'"`
	IsDeleted bool       `json:"-" gorm:"not null;default:false"`
	JoinedAt  time.Time  `json:"joinedAt"`

	// Relations
	Chat *Chat `json:"-" gorm:"foreignKey:ChatID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (ChatMember) TableName() string {
	return "chat_members"
}

// HasAuthorityOf reports whether the member's role grants at least the
// authority of required.
func (m *ChatMember) HasAuthorityOf(required MemberRole) bool {
	rank := map[MemberRole]int{RoleMember: 0, RoleAdmin: 1, RoleCreator: 2}
	return rank[m.Role] >= rank[required]
}
