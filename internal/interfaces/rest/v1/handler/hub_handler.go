package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
)

type HubHandler struct {
	hub    *hub.EventHub
	logger logger.Logger
}

func NewHubHandler(hubInstance *hub.EventHub, logger logger.Logger) *HubHandler {
	return &HubHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "hub"),
	}
}

// Status reports the connection state and listener counts.
func (h *HubHandler) Status(c *gin.Context) {
	status := h.hub.Status()
	h.logger.Debugf("Hub status check - State: %s, Events: %d", status.State, len(status.Listeners))
	c.JSON(http.StatusOK, status)
}

// JoinRoom asks the server to add this client to a room.
func (h *HubHandler) JoinRoom(c *gin.Context) {
	h.roomRequest(c, "join", h.hub.JoinRoom)
}

// LeaveRoom asks the server to remove this client from a room.
func (h *HubHandler) LeaveRoom(c *gin.Context) {
	h.roomRequest(c, "leave", h.hub.LeaveRoom)
}

func (h *HubHandler) roomRequest(c *gin.Context, action string, send func(ctx context.Context, roomID string) bool) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Room ID is required",
		})
		return
	}

	if !send(c.Request.Context(), roomID) {
		h.logger.Warnf("Rejected %s for room %s: hub is %s", action, roomID, h.hub.State())
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Room request was not sent to the notification server",
			"state": h.hub.State().String(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "requested",
		"action":  action,
		"room_id": roomID,
		"rooms":   h.hub.Rooms(),
	})
}
