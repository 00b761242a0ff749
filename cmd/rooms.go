package main

import (
	"context"
	"slices"
	"time"

	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
)

// keepRooms joins the configured rooms whenever the hub is connected and
// the current connection is missing one of them. Joins are fire and forget,
// so a new connection needs them re-sent.
func keepRooms(ctx context.Context, h *hub.EventHub, rooms []string, interval time.Duration, log logger.Logger) {
	if len(rooms) == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if h.IsConnected() {
			joined := h.Rooms()
			for _, room := range rooms {
				if !slices.Contains(joined, room) {
					log.Infof("joining configured room %s", room)
					h.JoinRoom(ctx, room)
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
