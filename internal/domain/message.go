package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message is identified by (ChatID, ID) where ID is a per-chat sequence
// starting at 1. IDs are not globally unique.
type Message struct {
	ChatID      uuid.UUID      `json:"chatId" gorm:"type:uuid;primaryKey"`
	ID          int64          `json:"id" gorm:"primaryKey;autoIncrement:false"`
	AuthorID    uuid.UUID      `json:"authorId" gorm:"type:uuid;not null;index"`
	Text        string         `json:"text" gorm:"not null"`
	Attachments datatypes.JSON `json:"attachments,omitempty"`
	IsDeleted   bool           `json:"-" gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// Relations
	Chat   *Chat `json:"-" gorm:"foreignKey:ChatID"`
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (Message) TableName() string {
	return "messages"
}
