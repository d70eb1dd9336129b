package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/biomarker-engine/internal/metrics"
)

const (
	correlationIDHeader = "X-Correlation-ID"
	correlationIDKey    = "correlation_id"
	apiKeyHeader        = "X-API-Key"
)

// SecurityHeaders adds security headers to all responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")

		// Only meaningful behind TLS.
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Referrer-Policy", "no-referrer")

		c.Next()
	}
}

// CorrelationID tags each request with the caller's X-Correlation-ID, or a
// fresh UUID when none was sent, and echoes it in the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(correlationIDKey, id)
		c.Header(correlationIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request and counts it by route.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ObserveRequest(route, status)

		entry := log.WithFields(logrus.Fields{
			"correlation_id": c.GetString(correlationIDKey),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         status,
			"latency":        time.Since(start).String(),
			"client_ip":      c.ClientIP(),
			"bytes":          c.Writer.Size(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

// recovery turns a handler panic into a 500 response.
func recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(logrus.Fields{
			"correlation_id": c.GetString(correlationIDKey),
			"panic":          recovered,
		}).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// apiKeyAuth requires key in the X-API-Key header. An empty key disables
// the check.
func apiKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			return
		}
		c.Next()
	}
}

// rateLimit rejects requests once limiter's bucket is empty. A nil limiter
// admits everything.
func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
