package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "request_id"
)

// RequestID assigns every request an id, reusing the caller's X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger middleware logs request details
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path = path + "?" + query
		}

		c.Next()

		l := logger
		if id := c.GetString(RequestIDContextKey); id != "" {
			l = l.WithRequestID(id)
		}
		if len(c.Errors) > 0 {
			l = l.WithField("errors", c.Errors.String())
		}
		l.LogHTTPRequest(c.Request.Method, path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}
