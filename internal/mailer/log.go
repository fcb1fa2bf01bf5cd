package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. It always
// reports ErrDeliveryDisabled so callers fall back to manual delivery.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email delivery disabled, message not sent",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return ErrDeliveryDisabled
}
