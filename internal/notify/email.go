package notify

import (
	"fmt"
	"net"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

// EmailSender delivers transactional mail. Failures are logged by callers,
// never propagated into a handler's result.
type EmailSender interface {
	SendEmail(address, subject, body string) error
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(addr, from, username, password string) *SMTPSender {
	s := &SMTPSender{addr: addr, from: from}
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) SendEmail(address, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, address, subject, body)
	return smtp.SendMail(s.addr, s.auth, s.from, []string{address}, []byte(msg))
}

// LogSender records mail instead of sending it; default when SMTP is not
// configured.
type LogSender struct{}

func (LogSender) SendEmail(address, subject, _ string) error {
	log.Info().Str("to", address).Str("subject", subject).Msg("email: delivery skipped (no SMTP configured)")
	return nil
}
