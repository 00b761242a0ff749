package sse

import (
	"github.com/gin-gonic/gin"

	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
)

func InitSSERouter(logger logger.Logger, hubInstance *hub.EventHub, rg *gin.RouterGroup) {
	sseHandler := NewServerSentEventHandler(hubInstance, logger)

	eventsGroup := rg.Group("/api/v1/events")
	eventsGroup.GET("/stream", SSEHeadersMiddleware(), sseHandler.Stream)
}

// SSEHeadersMiddleware sets the headers an event stream needs.
func SSEHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no") // For nginx
		c.Next()
	}
}
