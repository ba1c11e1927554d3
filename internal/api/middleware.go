package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey       = "userID"
	requestIDHeader = "X-Request-ID"
	userIDHeader    = "X-User-ID"
)

// RequestID tags every request with an id, propagated in the response
// header for correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AuthRequired resolves the authenticated caller set by the identity
// boundary upstream. Absence is a hard failure.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			RespondError(c, http.StatusUnauthorized, "unauthorized", "missing user identity")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RespondError sends the unified error shape and stops the handler
// chain.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   code,
		"message": message,
	})
}
