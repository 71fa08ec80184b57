package email

import (
	"context"
	"log/slog"
)

// LogSender writes emails to a logger instead of delivering them. It logs
// addresses and full contents, so it is meant for development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "send email",
		slog.String("from", string(msg.From)),
		slog.String("recipient", string(msg.To)),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.TextBody),
		slog.Int("htmlBytes", len(msg.HTMLBody)),
	)
	return nil
}
