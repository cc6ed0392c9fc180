package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.logger.Info("email not sent, no mail provider configured",
		zap.String("messageId", id), zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return id, nil
}
