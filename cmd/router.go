package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-notification-hub/internal/application/facade"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
	"go-notification-hub/internal/interfaces/rest/v1/handler"
	"go-notification-hub/internal/interfaces/sse"
)

func InitRouter(
	hubInstance *hub.EventHub,
	products *facade.ProductFeed,
	reviews *facade.ReviewFeeds,
	log logger.Logger,
) http.Handler {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	rootGroup := router.Group("")

	// Simple debug endpoint
	rootGroup.GET("/debug", func(c *gin.Context) {
		log.Info("Debug endpoint hit!")
		c.JSON(http.StatusOK, gin.H{"debug": "working"})
	})

	hubHandler := handler.NewHubHandler(hubInstance, log)
	rootGroup.GET("/hub/status", hubHandler.Status)

	productHandler := handler.NewProductHandler(products, reviews, log)
	apiGroup := rootGroup.Group("/api/v1")
	{
		apiGroup.POST("/rooms/:roomId", hubHandler.JoinRoom)
		apiGroup.DELETE("/rooms/:roomId", hubHandler.LeaveRoom)
		apiGroup.GET("/products", productHandler.ListProducts)
		apiGroup.GET("/products/:productId/reviews", productHandler.ListReviews)
	}

	sse.InitSSERouter(log, hubInstance, rootGroup)

	return router
}
