package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers that map errors onto transport
// responses or retry policies.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindPersistence
	KindToken
)

// Error is the single failure value crossing the service boundary. Code is
// stable and machine-readable; Message is human-readable; Context carries
// optional structured detail such as the conflicting id.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Context map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two domain errors by code, so sentinel values below work with
// errors.Is regardless of attached context or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// With returns a copy carrying one extra context entry.
func (e *Error) With(key string, value any) *Error {
	clone := *e
	clone.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}

// Wrap returns a copy recording cause as the underlying error.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf extracts the kind from any error chain; unknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	// Validation
	ErrValidation = newError(KindValidation, "VALIDATION_FAILED", "request failed structural validation")

	// Not found
	ErrUserNotFound       = newError(KindNotFound, "USER_NOT_FOUND", "user does not exist")
	ErrChatNotFound       = newError(KindNotFound, "CHAT_NOT_FOUND", "chat does not exist")
	ErrMessageNotFound    = newError(KindNotFound, "MESSAGE_NOT_FOUND", "message does not exist")
	ErrMentionNotFound    = newError(KindNotFound, "MENTION_NOT_FOUND", "no mention with that shortname")
	ErrMembershipNotFound = newError(KindNotFound, "MEMBERSHIP_NOT_FOUND", "user is not a member of the chat")
	ErrTokenNotFound      = newError(KindToken, "TOKEN_NOT_FOUND", "refresh token is not recognized")

	// State conflicts
	ErrUserNotConfirmed    = newError(KindConflict, "USER_NOT_CONFIRMED", "email address is not confirmed")
	ErrUserLockedOut       = newError(KindConflict, "USER_LOCKED_OUT", "account is temporarily locked")
	ErrEmailTaken          = newError(KindConflict, "EMAIL_ALREADY_REGISTERED", "email address is already registered")
	ErrChatAlreadyExists   = newError(KindConflict, "CHAT_ALREADY_EXISTS", "a chat between these users already exists")
	ErrShortnameTaken      = newError(KindConflict, "USERNAME_ALREADY_TAKEN", "shortname is already taken")
	ErrShortnameUnchanged  = newError(KindConflict, "USERNAME_UNCHANGED", "shortname is the same as the current one")
	ErrAlreadyMember       = newError(KindConflict, "ALREADY_MEMBER", "user is already a member of the chat")
	ErrNotGroupChat        = newError(KindConflict, "NOT_GROUP_CHAT", "operation applies only to group chats")
	ErrGroupPrivate        = newError(KindConflict, "GROUP_PRIVATE", "group is private")
	ErrGroupAlreadyPublic  = newError(KindConflict, "GROUP_ALREADY_PUBLIC", "group is already public")
	ErrGroupAlreadyPrivate = newError(KindConflict, "GROUP_ALREADY_PRIVATE", "group is already private")
	ErrConfirmationExpired = newError(KindConflict, "CONFIRMATION_EXPIRED", "confirmation token is invalid or expired")
	ErrConflict            = newError(KindConflict, "CONFLICT", "a uniqueness constraint was violated")

	// Authorization
	ErrInvalidCredentials = newError(KindUnauthorized, "INVALID_CREDENTIALS", "email or password is incorrect")
	ErrNotMember          = newError(KindUnauthorized, "NOT_MEMBER", "caller is not a member of the chat")
	ErrNotAuthor          = newError(KindUnauthorized, "NOT_AUTHOR", "caller is not the author of the message")
	ErrInsufficientRole   = newError(KindUnauthorized, "INSUFFICIENT_ROLE", "caller's role does not permit this action")
	ErrCreatorCannotLeave = newError(KindUnauthorized, "CREATOR_CANNOT_LEAVE", "the creator cannot leave the group")

	// Tokens
	ErrTokenExpired = newError(KindToken, "TOKEN_EXPIRED", "refresh token has expired")
	ErrTokenRevoked = newError(KindToken, "TOKEN_REVOKED", "refresh token has been revoked")

	// Persistence / programmer error
	ErrInvalidTransactionState = newError(KindPersistence, "INVALID_TRANSACTION_STATE", "transaction is not in a valid state for this operation")
	ErrPersistence             = newError(KindPersistence, "PERSISTENCE_FAILURE", "the storage layer reported an error")
)

// ValidationError builds a VALIDATION_FAILED error naming the offending field.
func ValidationError(field, message string) *Error {
	return ErrValidation.With("field", field).withMessage(message)
}

func (e *Error) withMessage(message string) *Error {
	clone := *e
	clone.Message = message
	return &clone
}
