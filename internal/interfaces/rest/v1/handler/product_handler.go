package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-notification-hub/internal/application/facade"
	"go-notification-hub/internal/infrastructure/logger"
)

type ProductHandler struct {
	products *facade.ProductFeed
	reviews  *facade.ReviewFeeds
	logger   logger.Logger
}

func NewProductHandler(products *facade.ProductFeed, reviews *facade.ReviewFeeds, logger logger.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		reviews:  reviews,
		logger:   logger.WithField("handler", "product"),
	}
}

// ListProducts returns the live product list.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products := h.products.Products()
	c.JSON(http.StatusOK, gin.H{
		"data":  products,
		"total": len(products),
	})
}

// ListReviews returns the live reviews of one product. The first request for
// a product starts following its review events.
func (h *ProductHandler) ListReviews(c *gin.Context) {
	productID := c.Param("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product ID is required",
		})
		return
	}

	c.JSON(http.StatusOK, h.reviews.For(productID).Reviews())
}
