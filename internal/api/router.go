package api

import (
	"github.com/gin-gonic/gin"

	"pulsefeed/internal/config"
	"pulsefeed/internal/feed"
)

// NewRouter wires the HTTP surface: health plus the authenticated feed
// endpoint.
func NewRouter(gen *feed.Generator, rules config.FeedRules) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.Use(AuthRequired())
	v1.POST("/feed", FeedHandler(gen, rules))

	return r
}
