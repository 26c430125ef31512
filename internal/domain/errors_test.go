package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dom/courier-backend/internal/domain"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := domain.ErrShortnameTaken.With("shortname", "alice")
	assert.ErrorIs(t, err, domain.ErrShortnameTaken)
	assert.NotErrorIs(t, err, domain.ErrShortnameUnchanged)
}

func TestErrorIsSurvivesWrapping(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := fmt.Errorf("commit: %w", domain.ErrConflict.Wrap(cause))

	assert.ErrorIs(t, err, domain.ErrConflict)

	var domainErr *domain.Error
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.KindConflict, domainErr.Kind)
	assert.ErrorIs(t, domainErr.Unwrap(), cause)
}

func TestWithDoesNotMutateSentinel(t *testing.T) {
	err := domain.ErrChatNotFound.With("id", "123")
	assert.Nil(t, domain.ErrChatNotFound.Context)
	assert.Equal(t, "123", err.Context["id"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.KindNotFound, domain.KindOf(domain.ErrUserNotFound))
	assert.Equal(t, domain.KindToken, domain.KindOf(domain.ErrTokenExpired))
	assert.Equal(t, domain.KindUnknown, domain.KindOf(errors.New("plain")))
}

func TestValidationError(t *testing.T) {
	err := domain.ValidationError("email", "email is required")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "email", err.Context["field"])
	assert.Contains(t, err.Error(), "email is required")
}
