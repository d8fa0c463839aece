package service

import (
	"context"
	"log/slog"

	"chatbackend/internal/events"
)

// publish forwards an event to the integration feed. Failures are logged and
// never fail the caller.
func publish(ctx context.Context, log *slog.Logger, pub events.Publisher, action string, payload any) {
	if err := pub.Publish(ctx, action, payload); err != nil {
		log.Warn("event feed publish failed", "action", action, "error", err)
	}
}
