package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID stamps each request with a correlation ID. Incoming IDs from
// trusted proxies are kept; otherwise a fresh UUID is issued. Admin audit
// rows record this ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// GetRequestID extracts the correlation ID from context
func GetRequestID(c *gin.Context) string {
	val, _ := c.Get("requestID")
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
