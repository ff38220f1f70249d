// Package notify delivers push notifications: the favorite trigger and the daily reminder.
package notify

import (
	"context"
	"log/slog"
)

// Message is one push notification to one device.
type Message struct {
	To    string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a push notification.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "notify.log_sender")}
}

// Send logs the message and never fails.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "push notification",
		"title", msg.Title,
		"body", msg.Body,
		"data", msg.Data,
	)
	return nil
}
