package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSMTPSenderAuth(t *testing.T) {
	// Credentials present: PLAIN auth bound to the relay host.
	s := NewSMTPSender("smtp.example.com:587", "noreply@example.com", "mailer", "secret")
	assert.NotNil(t, s.auth)

	// Port-less address still yields a usable auth host.
	s = NewSMTPSender("smtp.example.com", "noreply@example.com", "mailer", "secret")
	assert.NotNil(t, s.auth)

	// No credentials: unauthenticated relay.
	s = NewSMTPSender("smtp.example.com:587", "noreply@example.com", "", "")
	assert.Nil(t, s.auth)
}

func TestLogSenderNeverFails(t *testing.T) {
	assert.NoError(t, LogSender{}.SendEmail("user@example.com", "subject", "body"))
}
