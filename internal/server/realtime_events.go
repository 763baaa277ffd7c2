package server

import (
	"context"
	"log/slog"

	"recetario/internal/middleware"
	"recetario/internal/notifications"
)

// publishUserEvent delivers an event to every connection of userID.
// With Redis the event goes through pub/sub so other instances see it too;
// without Redis only clients of this instance receive it.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	if userID == 0 {
		return
	}
	msg, err := notifications.Encode(eventType, payload)
	if err != nil {
		middleware.Logger.Error("Failed to encode event", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	if s.notifier.Enabled() {
		if err := s.notifier.PublishUser(ctx, userID, msg); err != nil {
			middleware.Logger.Warn("Failed to publish user event",
				slog.String("type", eventType), slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
		return
	}
	s.hub.Broadcast(userID, msg)
}

func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload map[string]any) {
	msg, err := notifications.Encode(eventType, payload)
	if err != nil {
		middleware.Logger.Error("Failed to encode event", slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	if s.notifier.Enabled() {
		if err := s.notifier.PublishBroadcast(ctx, msg); err != nil {
			middleware.Logger.Warn("Failed to publish broadcast event", slog.String("type", eventType), slog.String("error", err.Error()))
		}
		return
	}
	s.hub.BroadcastAll(msg)
}
