package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Health struct {
	ping func(ctx context.Context) error
}

func NewHealth(ping func(ctx context.Context) error) Health {
	return Health{ping: ping}
}

func (h Health) Check(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
