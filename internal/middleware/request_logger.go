package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	operatorHeader  = "X-Operator"
	requestIDKey    = "requestID"
)

// RequestID tags every request with an ID, reusing the caller's X-Request-ID when given
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request. Health checks are not logged.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if strings.HasSuffix(path, "/health") {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}
		status := c.Writer.Status()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}
		if id, ok := c.Get(requestIDKey); ok {
			attrs = append(attrs, slog.Any("request_id", id))
		}
		if operator := c.GetHeader(operatorHeader); operator != "" {
			attrs = append(attrs, slog.String("operator", operator))
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			attrs = append(attrs, slog.String("error", msg))
		}

		switch {
		case status >= 500:
			logger.Log.Error("Incoming request", attrs...)
		case status >= 400:
			logger.Log.Warn("Incoming request", attrs...)
		default:
			logger.Log.Info("Incoming request", attrs...)
		}
	}
}
