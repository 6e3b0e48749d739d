package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Notifier delivers a short title and body somewhere a human will see it.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Log writes notifications to the process log instead of a chat channel.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger}
}

func (l *Log) Notify(_ context.Context, title, body string) error {
	l.log.Info("notification", "title", title, "body", body)
	return nil
}

// FromEnv picks Discord when a webhook is configured and falls back to the log.
func FromEnv(webhookURL string, logger *slog.Logger) Notifier {
	if strings.TrimSpace(webhookURL) == "" {
		return NewLog(logger)
	}
	d, err := NewDiscord(webhookURL)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("discord notifier disabled", "err", err)
		return NewLog(logger)
	}
	return d
}
