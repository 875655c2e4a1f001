package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"intent-service/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestID propagates X-Request-ID or generates a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// Logger writes one access log entry per request. Bodies are never logged.
func Logger(log logger.Logger) gin.HandlerFunc {
	log = logger.ForComponent(log, "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"requestId":  c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     status,
			"latencyMs":  time.Since(start).Milliseconds(),
			"clientIp":   c.ClientIP(),
			"bodyBytes":  c.Request.ContentLength,
			"errorCount": len(c.Errors),
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request completed", fields)
		case status >= http.StatusBadRequest:
			log.Warn("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}

// Recovery turns a panic into a 500 with the same error body the handlers use.
func Recovery(log logger.Logger) gin.HandlerFunc {
	log = logger.ForComponent(log, "http")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", map[string]interface{}{
					"requestId": c.GetString(RequestIDKey),
					"panic":     r,
					"stack":     string(debug.Stack()),
				})
				info := gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "internal server error",
				}
				if id := c.GetString(RequestIDKey); id != "" {
					info["request_id"] = id
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": info})
			}
		}()
		c.Next()
	}
}

// BodyLimit caps the request body at maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
