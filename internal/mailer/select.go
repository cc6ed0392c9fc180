package mailer

import (
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/config"
)

// New picks Resend when an API key is set, then SMTP, then the log.
func New(cfg *config.Config, logger *zap.Logger) Sender {
	switch {
	case cfg.ResendAPIKey != "":
		return NewResendSender(cfg.ResendAPIKey, cfg.MailFrom, logger)
	case cfg.SMTPHost != "":
		return NewSMTPSender(SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		}, logger)
	default:
		return NewLogSender(logger)
	}
}
