// Package mailer sends transactional e-mail through Resend, plain SMTP, or
// the log when neither is configured.
package mailer

import (
	"context"
	"errors"
	"strings"
)

// Message is a single e-mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Validate checks the fields every sender needs.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("recipient email address cannot be empty")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("recipient email address cannot be empty")
		}
	}
	if m.Subject == "" {
		return errors.New("email subject cannot be empty")
	}
	return nil
}

// Sender delivers messages and returns a provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
