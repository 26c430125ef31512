package domain

import (
	"time"

	"github.com/google/uuid"
)

// MentionKind tags which aggregate owns a shortname. Uniqueness of the
// shortname itself spans both kinds: a user and a chat can never hold the
// same handle.
type MentionKind string

const (
	MentionKindUser MentionKind = "user"
	MentionKindChat MentionKind = "chat"
)

// Mention binds a globally unique shortname to exactly one user or one
// public group chat. Mentions are hard-deleted when released.
type Mention struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Shortname string      `json:"shortname" gorm:"uniqueIndex;size:32;not null"`
	OwnerKind MentionKind `json:"ownerKind" gorm:"type:varchar(10);not null;index:idx_mention_owner,unique"`
	OwnerID   uuid.UUID   `json:"ownerId" gorm:"type:uuid;not null;index:idx_mention_owner,unique"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (Mention) TableName() string {
	return "mentions"
}
