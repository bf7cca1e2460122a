package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	dbinfra "stonx/internal/infrastructure/db"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": Version,
		"db":      dbinfra.Status(c.Request.Context(), s.db),
	})
}
