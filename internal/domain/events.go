package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain notification published after a successful commit.
// Recipients lists the users the event should be fanned out to; delivery is
// best-effort and never affects the committed transaction.
type Event interface {
	EventName() string
	EventRecipients() []uuid.UUID
}

type ChatCreated struct {
	ChatID    uuid.UUID   `json:"chatId"`
	Type      ChatType    `json:"type"`
	MemberIDs []uuid.UUID `json:"memberIds"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (e ChatCreated) EventName() string            { return "chat.created" }
func (e ChatCreated) EventRecipients() []uuid.UUID { return e.MemberIDs }

type GroupCreated struct {
	ChatID    uuid.UUID   `json:"chatId"`
	Name      string      `json:"name"`
	CreatorID uuid.UUID   `json:"creatorId"`
	Shortname string      `json:"shortname,omitempty"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e GroupCreated) EventName() string            { return "group.created" }
func (e GroupCreated) EventRecipients() []uuid.UUID { return e.MemberIDs }

type GroupUpdated struct {
	ChatID    uuid.UUID   `json:"chatId"`
	Name      string      `json:"name"`
	IsPrivate bool        `json:"isPrivate"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e GroupUpdated) EventName() string            { return "group.updated" }
func (e GroupUpdated) EventRecipients() []uuid.UUID { return e.MemberIDs }

type GroupDeleted struct {
	ChatID    uuid.UUID   `json:"chatId"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e GroupDeleted) EventName() string            { return "group.deleted" }
func (e GroupDeleted) EventRecipients() []uuid.UUID { return e.MemberIDs }

type MemberJoined struct {
	ChatID    uuid.UUID   `json:"chatId"`
	UserID    uuid.UUID   `json:"userId"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e MemberJoined) EventName() string            { return "member.joined" }
func (e MemberJoined) EventRecipients() []uuid.UUID { return e.MemberIDs }

type MemberLeft struct {
	ChatID    uuid.UUID   `json:"chatId"`
	UserID    uuid.UUID   `json:"userId"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e MemberLeft) EventName() string            { return "member.left" }
func (e MemberLeft) EventRecipients() []uuid.UUID { return e.MemberIDs }

type MessageSent struct {
	ChatID    uuid.UUID   `json:"chatId"`
	MessageID int64       `json:"messageId"`
	AuthorID  uuid.UUID   `json:"authorId"`
	Text      string      `json:"text"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e MessageSent) EventName() string            { return "message.sent" }
func (e MessageSent) EventRecipients() []uuid.UUID { return e.MemberIDs }

type MessageUpdated struct {
	ChatID    uuid.UUID   `json:"chatId"`
	MessageID int64       `json:"messageId"`
	Text      string      `json:"text"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e MessageUpdated) EventName() string            { return "message.updated" }
func (e MessageUpdated) EventRecipients() []uuid.UUID { return e.MemberIDs }

type MessageDeleted struct {
	ChatID    uuid.UUID   `json:"chatId"`
	MessageID int64       `json:"messageId"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (e MessageDeleted) EventName() string            { return "message.deleted" }
func (e MessageDeleted) EventRecipients() []uuid.UUID { return e.MemberIDs }

type UserLoggedIn struct {
	UserID uuid.UUID `json:"userId"`
}

func (e UserLoggedIn) EventName() string            { return "user.logged_in" }
func (e UserLoggedIn) EventRecipients() []uuid.UUID { return []uuid.UUID{e.UserID} }

type UserLoggedOut struct {
	UserID uuid.UUID `json:"userId"`
}

func (e UserLoggedOut) EventName() string            { return "user.logged_out" }
func (e UserLoggedOut) EventRecipients() []uuid.UUID { return []uuid.UUID{e.UserID} }
