package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := s.ginEngine.Group("/api/v1")
	apiV1.Use(s.authentication)

	apiV1.POST("/stage", s.stageImage)
	apiV1.POST("/restage", s.restageImage)
}
