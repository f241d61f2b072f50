package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

const (
	// ContextKeyRequestID is the context key for request ID.
	ContextKeyRequestID ContextKey = "request_id"
)

// RequestLogger logs every request with structured fields and puts a
// request-scoped logger into the request context.
type RequestLogger struct {
	logger logger.Logger
}

func NewRequestLogger(l logger.Logger) *RequestLogger {
	return &RequestLogger{logger: l.With(logger.Component("http"))}
}

// Handler returns the Gin middleware handler.
func (m *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(string(ContextKeyRequestID), requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path

		reqLogger := m.logger.With(logger.RequestID(requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []logger.Field{
			logger.Method(c.Request.Method),
			logger.Path(path),
			logger.Status(status),
			logger.Latency(time.Since(start)),
			logger.ClientIP(GetClientIP(c)),
			logger.UserAgent(c.GetHeader("User-Agent")),
		}
		if uid, err := GetUserID(c); err == nil {
			fields = append(fields, logger.UserID(uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLogger.Error("HTTP request", fields...)
		case status >= 400:
			reqLogger.Warn("HTTP request", fields...)
		default:
			reqLogger.Info("HTTP request", fields...)
		}
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(c *gin.Context) string {
	if v, exists := c.Get(string(ContextKeyRequestID)); exists {
		if rid, ok := v.(string); ok {
			return rid
		}
	}
	return ""
}
