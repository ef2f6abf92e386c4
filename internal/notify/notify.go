// Package notify delivers in-app notifications. Only a logging implementation
// exists today; the interface keeps the service layer ready for a push or
// webhook backend.
package notify

import (
	"context"
	"log/slog"
)

// Notifier emits a notification event with an arbitrary payload.
type Notifier interface {
	Notify(ctx context.Context, event string, payload any) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLog constructs a logging notifier.
func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event string, payload any) error {
	n.logger.InfoContext(ctx, "notification", "event", event, "payload", payload)
	return nil
}
