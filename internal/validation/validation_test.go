package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dom/courier-backend/internal/domain"
	"github.com/dom/courier-backend/internal/validation"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "user@example.com", wantErr: false},
		{name: "subdomain", email: "user@mail.example.com", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "userexample.com", wantErr: true},
		{name: "missing domain", email: "user@", wantErr: true},
		{name: "spaces", email: "user @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Email(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShortname(t *testing.T) {
	tests := []struct {
		name      string
		shortname string
		wantErr   bool
	}{
		{name: "valid", shortname: "alice_42", wantErr: false},
		{name: "minimum length", shortname: "abc", wantErr: false},
		{name: "too short", shortname: "ab", wantErr: true},
		{name: "too long", shortname: strings.Repeat("a", 33), wantErr: true},
		{name: "uppercase", shortname: "Alice", wantErr: true},
		{name: "leading digit", shortname: "1alice", wantErr: true},
		{name: "leading underscore", shortname: "_alice", wantErr: true},
		{name: "hyphen", shortname: "a-lice", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Shortname(tt.shortname)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageText(t *testing.T) {
	assert.NoError(t, validation.MessageText("hello"))
	assert.Error(t, validation.MessageText(""))
	assert.Error(t, validation.MessageText(strings.Repeat("x", validation.MaxMessageLength+1)))
	assert.NoError(t, validation.MessageText(strings.Repeat("x", validation.MaxMessageLength)))
}

func TestGroupName(t *testing.T) {
	assert.NoError(t, validation.GroupName("friends"))
	assert.Error(t, validation.GroupName(""))
	assert.Error(t, validation.GroupName(strings.Repeat("x", validation.MaxGroupNameLength+1)))
}

func TestPassword(t *testing.T) {
	assert.NoError(t, validation.Password("longenough"))
	assert.Error(t, validation.Password("short"))
}
