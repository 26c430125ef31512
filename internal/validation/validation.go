// Package validation holds the pure structural checks run on command input
// before a handler touches persistent state.
package validation

import (
	"regexp"
	"unicode/utf8"

	"github.com/dom/courier-backend/internal/domain"
)

const (
	MaxMessageLength   = 4096
	MaxGroupNameLength = 128
	MaxBioLength       = 512
	MinPasswordLength  = 8
	MinShortnameLength = 3
	MaxShortnameLength = 32
)

var (
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	shortnamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func Email(email string) error {
	if email == "" {
		return domain.ValidationError("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return domain.ValidationError("email", "email is not a valid address")
	}
	return nil
}

func Password(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return domain.ValidationError("password", "password must be at least 8 characters")
	}
	return nil
}

// Shortname accepts lowercase handles: a letter followed by letters, digits
// or underscores, 3 to 32 characters.
func Shortname(shortname string) error {
	n := utf8.RuneCountInString(shortname)
	if n < MinShortnameLength || n > MaxShortnameLength {
		return domain.ValidationError("shortname", "shortname must be 3 to 32 characters")
	}
	if !shortnamePattern.MatchString(shortname) {
		return domain.ValidationError("shortname", "shortname may contain lowercase letters, digits and underscores and must start with a letter")
	}
	return nil
}

func MessageText(text string) error {
	if text == "" {
		return domain.ValidationError("text", "message text is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return domain.ValidationError("text", "message text exceeds the maximum length")
	}
	return nil
}

func GroupName(name string) error {
	if name == "" {
		return domain.ValidationError("name", "group name is required")
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLength {
		return domain.ValidationError("name", "group name exceeds the maximum length")
	}
	return nil
}

func FirstName(name string) error {
	if name == "" {
		return domain.ValidationError("firstName", "first name is required")
	}
	return nil
}

func Bio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return domain.ValidationError("bio", "bio exceeds the maximum length")
	}
	return nil
}
