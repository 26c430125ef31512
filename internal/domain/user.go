package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the self-reported presence status shown next to a user.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusAway    UserStatus = "away"
	UserStatusBusy    UserStatus = "busy"
	UserStatusOffline UserStatus = "offline"
)

type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	FirstName    string     `json:"firstName" gorm:"not null"`
	LastName     string     `json:"lastName"`
	Bio          string     `json:"bio"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'offline'"`

	// Online mirrors the presence store at read time; never persisted.
	Online bool `json:"online" gorm:"-"`

	EmailConfirmed bool `json:"emailConfirmed" gorm:"not null;default:false"`
	IsVerified     bool `json:"isVerified" gorm:"not null;default:false"`
	IsDeleted      bool `json:"-" gorm:"not null;default:false;index"`

	ConfirmationToken     string     `json:"-"`
	ConfirmationExpiresAt *time.Time `json:"-"`

	FailedLoginCount int        `json:"-" gorm:"not null;default:0"`
	LockoutUntil     *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Memberships   []ChatMember   `json:"-" gorm:"foreignKey:UserID"`
	RefreshTokens []RefreshToken `json:"-" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// IsLockedOut reports whether a failed-login lockout is still in force.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// ConfirmationValid reports whether token matches the pending confirmation
// token and the confirmation window has not elapsed.
func (u *User) ConfirmationValid(token string, now time.Time) bool {
	if u.ConfirmationToken == "" || u.ConfirmationToken != token {
		return false
	}
	return u.ConfirmationExpiresAt != nil && u.ConfirmationExpiresAt.After(now)
}

// DisplayName is the name rendered in chat member lists.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
