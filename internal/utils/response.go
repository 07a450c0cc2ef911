package utils

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key holding the HTTP request id.
const RequestIDKey = "request_id"

func Success(c *gin.Context, data any) {
	c.JSON(200, data)
}

func Error(c *gin.Context, code int, kind, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error":      kind,
		"message":    msg,
		"request_id": RequestID(c),
	})
}

// RequestID returns the id set by the request id middleware, or "unknown".
func RequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return "unknown"
}
