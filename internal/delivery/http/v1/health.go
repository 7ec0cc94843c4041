package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

func (h *handlerImpl) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Todo API is running",
		"status":  "ok",
	})
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, healthPingTimeout)
	defer cancel()

	err := h.db.Ping(ctx)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to ping database")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}
